package entity

import "time"

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото объекта
	StateProcessing    UserState = "processing"     // Обработка снимка
)

// User представляет пользователя бота
type User struct {
	ID        int64     // Telegram User ID
	ChatID    int64     // Telegram Chat ID
	State     UserState // Текущее состояние пользователя
	Location  *GPSFix   // Последняя присланная геопозиция
	LocatedAt time.Time // Когда она была получена
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetLocation запоминает геопозицию пользователя
func (u *User) SetLocation(fix GPSFix, at time.Time) {
	u.Location = &fix
	u.LocatedAt = at
}

// FreshLocation возвращает геопозицию, если она не старше maxAge.
func (u *User) FreshLocation(now time.Time, maxAge time.Duration) *GPSFix {
	if u.Location == nil || now.Sub(u.LocatedAt) > maxAge {
		return nil
	}
	fix := *u.Location
	return &fix
}
