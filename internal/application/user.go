package app

import (
	"context"
	"time"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
)

// LocationMaxAge сколько присланная в чат геопозиция считается актуальной
const LocationMaxAge = 15 * time.Minute

type UserService struct {
	repo port.UserRepository
	now  func() time.Time
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// ShareLocation запоминает геопозицию, присланную пользователем.
func (s *UserService) ShareLocation(ctx context.Context, userID, chatID int64, fix entity.GPSFix) error {
	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return err
	}
	return s.repo.UpdateLocation(ctx, userID, fix, s.now())
}

// Locator возвращает источник координат на основе последней геопозиции пользователя.
func (s *UserService) Locator(userID, chatID int64) port.Locator {
	return &userLocator{users: s, userID: userID, chatID: chatID}
}

type userLocator struct {
	users  *UserService
	userID int64
	chatID int64
}

func (l *userLocator) Locate(ctx context.Context) (*entity.GPSFix, error) {
	user, err := l.users.repo.Get(ctx, l.userID, l.chatID)
	if err != nil {
		return nil, err
	}
	fix := user.FreshLocation(l.users.now(), LocationMaxAge)
	if fix == nil {
		return nil, port.ErrGeolocationUnavailable
	}
	return fix, nil
}
