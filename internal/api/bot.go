package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "artifact-sifter/internal/application"
	"artifact-sifter/internal/container"
	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/infrastructure/vision"
)

// Bot представляет Telegram-бота
type Bot struct {
	api    *tgbotapi.BotAPI
	app    *container.Container
	client *http.Client
	logger *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("authorized on telegram", "account", api.Self.UserName)

	return &Bot{
		api:    api,
		app:    c,
		client: http.DefaultClient,
		logger: logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	user, err := b.app.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("failed to get user", "user", msg.From.ID, "error", err)
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg, user)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg, user)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case msg.Location != nil:
		b.handleLocation(ctx, msg, user)
	default:
		// Текстовое сообщение (не команда)
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		b.setState(ctx, user, entity.StateMainMenu)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		if _, err := b.app.UserService.BeginCheck(ctx, user.ID, chatID); err != nil {
			b.logger.Error("failed to begin check", "user", user.ID, "error", err)
		}
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "cancel":
		if _, err := b.app.UserService.Cancel(ctx, user.ID, chatID); err != nil {
			b.logger.Error("failed to cancel", "user", user.ID, "error", err)
		}
		b.sendMessage(chatID, msgCancelled)

	case "status":
		sess := b.app.Session
		b.sendMessage(chatID, formatStatus(sess.Readiness(), sess.Hints(), sess.SensorUnavailable(), sess.Active()))

	case "snap":
		b.handleSnap(ctx, msg, user)

	case "models":
		models, err := b.app.ModelService.ListModels(ctx)
		if err != nil {
			b.logger.Error("failed to list models", "error", err)
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, formatModels(models, b.app.Session.Active()))

	case "addmodel":
		b.handleAddModel(ctx, chatID, args)

	case "use":
		id, ok := parseID(args)
		if !ok {
			b.sendMessage(chatID, msgBadID)
			return
		}
		b.activateModel(ctx, chatID, id)

	case "nomodel":
		if err := b.app.ModelService.Deactivate(b.app.Session); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.sendMessage(chatID, msgModelDeactivated)

	case "delmodel":
		id, ok := parseID(args)
		if !ok {
			b.sendMessage(chatID, msgBadID)
			return
		}
		if err := b.app.ModelService.DeleteModel(ctx, b.app.Session, id); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("🗑 Модель #%d удалена.", id))

	case "captures":
		captures, err := b.app.CaptureService.ListCaptures(ctx)
		if err != nil {
			b.logger.Error("failed to list captures", "error", err)
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, formatCaptures(captures))

	case "show":
		id, ok := parseID(args)
		if !ok {
			b.sendMessage(chatID, msgBadID)
			return
		}
		b.showCapture(ctx, chatID, id)

	case "delete":
		id, ok := parseID(args)
		if !ok {
			b.sendMessage(chatID, msgBadID)
			return
		}
		if err := b.app.CaptureService.DeleteCapture(ctx, id); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("🗑 Снимок #%d удалён.", id))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	data, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("failed to download photo", "user", user.ID, "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	img, err := vision.DecodeImage(data)
	if err != nil {
		b.logger.Warn("failed to decode photo", "user", user.ID, "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	b.capture(ctx, msg.Chat.ID, user, func() (*app.CaptureResult, error) {
		bounds := img.Bounds()
		return b.app.CaptureService.Capture(ctx, b.app.Session, img, bounds.Dx(), bounds.Dy(), b.locatorFor(user)...)
	})
}

// handleSnap снимает кадр камерой станции
func (b *Bot) handleSnap(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if b.app.Camera == nil {
		b.sendMessage(msg.Chat.ID, msgNoCamera)
		return
	}

	b.capture(ctx, msg.Chat.ID, user, func() (*app.CaptureResult, error) {
		img, err := b.app.Camera.Grab(ctx)
		if err != nil {
			return nil, fmt.Errorf("grab frame: %w", err)
		}
		bounds := img.Bounds()
		return b.app.CaptureService.Capture(ctx, b.app.Session, img, bounds.Dx(), bounds.Dy(), b.locatorFor(user)...)
	})
}

// capture выполняет съёмку и отправляет результат в чат
func (b *Bot) capture(ctx context.Context, chatID int64, user *entity.User, run func() (*app.CaptureResult, error)) {
	sess := b.app.Session
	if !sess.CanCapture() {
		b.sendMessage(chatID, formatNotPermitted(sess.Readiness(), sess.Hints()))
		return
	}

	b.setState(ctx, user, entity.StateProcessing)
	defer b.setState(ctx, user, entity.StateMainMenu)

	b.sendMessage(chatID, msgProcessing)

	result, err := run()
	switch {
	case errors.Is(err, app.ErrCaptureNotPermitted):
		b.sendMessage(chatID, formatNotPermitted(sess.Readiness(), sess.Hints()))
		return
	case errors.Is(err, app.ErrCaptureInProgress):
		b.sendMessage(chatID, msgCaptureBusy)
		return
	case err != nil:
		b.logger.Error("capture failed", "user", user.ID, "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	image := result.Record.ImageBlob
	if result.Heatmap != nil {
		view, err := vision.EncodeJPEG(vision.Compare(result.Frame, result.Heatmap, app.CompareSplit))
		if err != nil {
			b.logger.Warn("failed to render compare view", "capture", result.Record.ID, "error", err)
		} else {
			image = view
		}
	}

	b.sendPhoto(chatID, result.Record.Filename, image, formatCaption(result.Record, result.Summary))
	if result.Warning != nil {
		b.sendMessage(chatID, msgInferenceFailed)
	}
}

// locatorFor подставляет геопозицию из чата, если она свежая
func (b *Bot) locatorFor(user *entity.User) []app.CaptureOption {
	if user.FreshLocation(time.Now(), app.LocationMaxAge) == nil {
		return nil
	}
	return []app.CaptureOption{app.WithLocator(b.app.UserService.Locator(user.ID, user.ChatID))}
}

// handleDocument импортирует модель, присланную файлом
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".tflite") {
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
		return
	}

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		b.logger.Error("failed to download model", "file", doc.FileName, "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	name := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	id, err := b.app.ModelService.Import(ctx, name, data)
	if err != nil {
		b.replyError(msg.Chat.ID, err)
		return
	}
	b.activateModel(ctx, msg.Chat.ID, id)
}

func (b *Bot) handleAddModel(ctx context.Context, chatID int64, args string) {
	name, url, ok := parseAddModel(args)
	if !ok {
		b.sendMessage(chatID, msgAddModelUsage)
		return
	}

	b.sendMessage(chatID, msgDownloading)
	id, err := b.app.ModelService.ImportFromURL(ctx, name, url)
	if err != nil {
		b.logger.Warn("model download failed", "url", url, "error", err)
		b.sendMessage(chatID, fmt.Sprintf("⚠️ Не удалось скачать модель: %v", err))
		return
	}
	b.activateModel(ctx, chatID, id)
}

func (b *Bot) activateModel(ctx context.Context, chatID, id int64) {
	active, err := b.app.ModelService.Activate(ctx, b.app.Session, id)
	switch {
	case errors.Is(err, app.ErrModelNotFound):
		b.sendMessage(chatID, msgModelNotFound)
	case errors.Is(err, app.ErrModelLoadFailure):
		b.sendMessage(chatID, msgModelLoadError)
	case err != nil:
		b.replyError(chatID, err)
	default:
		b.sendMessage(chatID, fmt.Sprintf("✅ Активна модель %s (#%d).", active.Name, active.ID))
	}
}

func (b *Bot) showCapture(ctx context.Context, chatID, id int64) {
	record, err := b.app.CaptureService.GetCapture(ctx, id)
	if err != nil {
		b.sendMessage(chatID, msgCaptureNotFound)
		return
	}

	view, err := b.app.CaptureService.CompareView(*record)
	if err != nil {
		b.logger.Warn("failed to render capture", "capture", id, "error", err)
		view = record.ImageBlob
	}
	b.sendPhoto(chatID, record.Filename, view, formatCaption(*record, nil))
}

// handleLocation запоминает геопозицию пользователя
func (b *Bot) handleLocation(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	loc := msg.Location
	fix := entity.GPSFix{Lat: loc.Latitude, Lon: loc.Longitude, AccuracyMeters: loc.HorizontalAccuracy}
	if err := b.app.UserService.ShareLocation(ctx, user.ID, msg.Chat.ID, fix); err != nil {
		b.logger.Error("failed to save location", "user", user.ID, "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	b.sendMessage(msg.Chat.ID, msgLocationSaved)
}

func (b *Bot) setState(ctx context.Context, user *entity.User, state entity.UserState) {
	if _, err := b.app.UserService.SetState(ctx, user.ID, user.ChatID, state); err != nil {
		b.logger.Error("failed to save user state", "user", user.ID, "error", err)
	}
}

func (b *Bot) replyError(chatID int64, err error) {
	if errors.Is(err, app.ErrCaptureInProgress) {
		b.sendMessage(chatID, msgCaptureBusy)
		return
	}
	b.logger.Error("request failed", "chat", chatID, "error", err)
	b.sendMessage(chatID, msgProcessingError)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "chat", chatID, "error", err)
	}
}

// sendPhoto отправляет JPEG с подписью
func (b *Bot) sendPhoto(chatID int64, name string, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name + ".jpg", Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Error("failed to send photo", "chat", chatID, "error", err)
	}
}
