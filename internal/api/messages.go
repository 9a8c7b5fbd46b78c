package telegram

import (
	"fmt"
	"strconv"
	"strings"

	app "artifact-sifter/internal/application"
	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/infrastructure/vision"
)

const (
	msgStart = `👋 Привет! Я помогаю искать артефакты на снимках раскопа.

📸 Отправьте фото участка — я сохраню снимок и, если выбрана модель, построю тепловую карту вероятных находок.

📋 Команды:
/check — сделать снимок
/status — готовность к съёмке
/models — список моделей
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите модель: /models, затем /use <id>
2️⃣ Отправьте фото участка (или /snap для камеры станции)
3️⃣ Получите снимок: слева тепловая карта, справа фото

📍 Пришлите геопозицию перед съёмкой — она попадёт в метаданные.

📋 Команды:
/check — начать съёмку
/snap — снять камерой станции
/status — наклон и подсказки
/models — модели
/addmodel <имя> <url> — скачать модель
/use <id> — выбрать модель
/nomodel — снимать без модели
/delmodel <id> — удалить модель
/captures — последние снимки
/show <id> — показать снимок
/delete <id> — удалить снимок
/cancel — отменить операцию

📎 Файл .tflite, отправленный документом, импортируется как модель.`

	msgAwaitingPhoto    = "📸 Отправьте фото участка."
	msgCancelled        = "❌ Операция отменена. Отправьте /check для нового снимка."
	msgSendPhoto        = "📸 Пожалуйста, отправьте фото участка."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Обрабатываю снимок..."
	msgProcessingError  = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgInferenceFailed  = "⚠️ Модель не смогла обработать снимок. Фото сохранено без тепловой карты."
	msgCaptureBusy      = "⏳ Предыдущий снимок ещё обрабатывается."
	msgNoCamera         = "📷 Камера станции не подключена."
	msgLocationSaved    = "📍 Геопозиция сохранена, она будет добавлена к следующим снимкам."
	msgNoModels         = "📦 Моделей пока нет. Добавьте: /addmodel <имя> <url>"
	msgNoCaptures       = "🗂 Снимков пока нет."
	msgModelDeactivated = "🚫 Модель отключена, снимки сохраняются без тепловой карты."
	msgModelNotFound    = "❓ Модель не найдена. Список: /models"
	msgModelLoadError   = "⚠️ Не удалось загрузить модель."
	msgCaptureNotFound  = "❓ Снимок не найден. Список: /captures"
	msgBadID            = "❓ Укажите числовой id."
	msgAddModelUsage    = "Использование: /addmodel <имя> <url>"
	msgDownloading      = "⏬ Скачиваю модель..."

	// сколько снимков показывает /captures
	capturesPageSize = 10
)

var readinessText = map[entity.Readiness]string{
	entity.ReadinessUnknown:       "⏳ нет данных о наклоне",
	entity.ReadinessAligned:       "🟢 выровнено",
	entity.ReadinessAlmostAligned: "🟡 почти выровнено",
	entity.ReadinessMisaligned:    "🔴 не выровнено",
}

var hintText = map[entity.Hint]string{
	entity.HintTiltLeft:   "наклоните влево",
	entity.HintTiltRight:  "наклоните вправо",
	entity.HintTiltToward: "наклоните на себя",
	entity.HintTiltAway:   "наклоните от себя",
}

func formatHints(hints []entity.Hint) string {
	if len(hints) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, hintText[h])
	}
	return "↪️ " + strings.Join(parts, ", ")
}

func formatStatus(readiness entity.Readiness, hints []entity.Hint, sensorless bool, active *app.ActiveModel) string {
	var b strings.Builder
	if sensorless {
		b.WriteString("🧭 Датчик наклона не подключён, съёмка разрешена.")
	} else {
		fmt.Fprintf(&b, "🧭 Готовность: %s", readinessText[readiness])
		if h := formatHints(hints); h != "" {
			b.WriteString("\n" + h)
		}
	}

	b.WriteString("\n📦 Модель: ")
	if active == nil {
		b.WriteString("не выбрана")
	} else {
		fmt.Fprintf(&b, "%s (#%d)", active.Name, active.ID)
	}
	return b.String()
}

func formatNotPermitted(readiness entity.Readiness, hints []entity.Hint) string {
	text := fmt.Sprintf("🚫 Снимок сейчас невозможен: %s.", readinessText[readiness])
	if h := formatHints(hints); h != "" {
		text += "\n" + h
	}
	return text
}

func formatCaption(record entity.CaptureRecord, summary *vision.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🖼 #%d %s", record.ID, record.Filename)

	if name := record.Metadata.ModelName; name != nil {
		fmt.Fprintf(&b, "\n📦 %s", *name)
	}
	if summary != nil {
		fmt.Fprintf(&b, "\n🔥 максимум %.0f%%, среднее %.0f%%, покрытие %.0f%%",
			summary.Peak*100, summary.Mean*100, summary.Coverage*100)
	}
	if gps := record.Metadata.GPS; gps != nil {
		fmt.Fprintf(&b, "\n📍 %.6f, %.6f (±%.0f м)", gps.Lat, gps.Lon, gps.AccuracyMeters)
	}
	return b.String()
}

func formatModels(models []entity.ModelRecord, active *app.ActiveModel) string {
	if len(models) == 0 {
		return msgNoModels
	}

	var b strings.Builder
	b.WriteString("📦 Модели:")
	for _, m := range models {
		mark := "▫️"
		if active != nil && active.ID == m.ID {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n%s #%d %s — %s", mark, m.ID, m.Name, m.CreatedAt.Local().Format("02.01.2006 15:04"))
	}
	b.WriteString("\n\nВыбрать: /use <id>")
	return b.String()
}

func formatCaptures(captures []entity.CaptureRecord) string {
	if len(captures) == 0 {
		return msgNoCaptures
	}
	if len(captures) > capturesPageSize {
		captures = captures[:capturesPageSize]
	}

	var b strings.Builder
	b.WriteString("🗂 Последние снимки:")
	for _, c := range captures {
		mark := "📷"
		if c.HasHeatmap() {
			mark = "🔥"
		}
		fmt.Fprintf(&b, "\n%s #%d %s", mark, c.ID, c.Filename)
	}
	b.WriteString("\n\nПоказать: /show <id>")
	return b.String()
}

// parseID разбирает единственный числовой аргумент команды
func parseID(args string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseAddModel разбирает «<имя> <url>», имя может содержать пробелы
func parseAddModel(args string) (name, url string, ok bool) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", "", false
	}
	url = fields[len(fields)-1]
	name = strings.Join(fields[:len(fields)-1], " ")
	return name, url, true
}
