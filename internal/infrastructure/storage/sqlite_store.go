package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
)

const schema = `
	CREATE TABLE IF NOT EXISTS models (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		source_url TEXT,
		blob BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS models_by_name ON models(name);
	CREATE TABLE IF NOT EXISTS captures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		filename TEXT NOT NULL,
		image BLOB NOT NULL,
		heatmap BLOB,
		metadata TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS captures_by_timestamp ON captures(timestamp);
`

// SQLiteStore хранилище моделей и снимков в SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore открывает базу и создаёт таблицы.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Один писатель: SQLite не любит параллельные записи.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close закрывает базу
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddModel сохраняет модель
func (s *SQLiteStore) AddModel(ctx context.Context, model entity.ModelRecord) (int64, error) {
	var sourceURL sql.NullString
	if model.SourceURL != "" {
		sourceURL = sql.NullString{String: model.SourceURL, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO models (name, created_at, source_url, blob) VALUES (?, ?, ?, ?)",
		model.Name, model.CreatedAt.UnixMilli(), sourceURL, model.Blob)
	if err != nil {
		return 0, fmt.Errorf("insert model: %w", err)
	}
	return res.LastInsertId()
}

// GetModel возвращает модель или nil
func (s *SQLiteStore) GetModel(ctx context.Context, id int64) (*entity.ModelRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, source_url, blob FROM models WHERE id = ?", id)

	model, err := scanModel(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get model %d: %w", id, err)
	}
	return model, nil
}

// ListModels возвращает модели без бинарных данных
func (s *SQLiteStore) ListModels(ctx context.Context) ([]entity.ModelRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, source_url, NULL FROM models")
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []entity.ModelRecord
	for rows.Next() {
		model, err := scanModel(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		models = append(models, *model)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// DeleteModel удаляет модель
func (s *SQLiteStore) DeleteModel(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM models WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete model %d: %w", id, err)
	}
	return nil
}

// AddCapture сохраняет снимок
func (s *SQLiteStore) AddCapture(ctx context.Context, capture entity.CaptureRecord) (int64, error) {
	meta, err := json.Marshal(capture.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}

	var heatmap any
	if len(capture.HeatmapBlob) > 0 {
		heatmap = capture.HeatmapBlob
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO captures (timestamp, filename, image, heatmap, metadata) VALUES (?, ?, ?, ?, ?)",
		capture.Timestamp.UnixMilli(), capture.Filename, capture.ImageBlob, heatmap, string(meta))
	if err != nil {
		return 0, fmt.Errorf("insert capture: %w", err)
	}
	return res.LastInsertId()
}

// GetCapture возвращает снимок или nil
func (s *SQLiteStore) GetCapture(ctx context.Context, id int64) (*entity.CaptureRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, timestamp, filename, image, heatmap, metadata FROM captures WHERE id = ?", id)

	capture, err := scanCapture(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get capture %d: %w", id, err)
	}
	return capture, nil
}

// ListCaptures возвращает снимки без бинарных данных; блобы читает GetCapture
func (s *SQLiteStore) ListCaptures(ctx context.Context) ([]entity.CaptureRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, filename, NULL, NULL, metadata, heatmap IS NOT NULL FROM captures")
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var captures []entity.CaptureRecord
	for rows.Next() {
		capture, err := scanCapture(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		captures = append(captures, *capture)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return captures, nil
}

// DeleteCapture удаляет снимок
func (s *SQLiteStore) DeleteCapture(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM captures WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete capture %d: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(row scanner, withBlob bool) (*entity.ModelRecord, error) {
	var (
		model     entity.ModelRecord
		createdAt int64
		sourceURL sql.NullString
		blob      []byte
	)
	if err := row.Scan(&model.ID, &model.Name, &createdAt, &sourceURL, &blob); err != nil {
		return nil, err
	}

	model.CreatedAt = time.UnixMilli(createdAt)
	model.SourceURL = sourceURL.String
	if withBlob {
		model.Blob = blob
	}
	return &model, nil
}

func scanCapture(row scanner, withBlobs bool) (*entity.CaptureRecord, error) {
	var (
		capture   entity.CaptureRecord
		timestamp int64
		meta      string
	)
	dest := []any{&capture.ID, &timestamp, &capture.Filename, &capture.ImageBlob, &capture.HeatmapBlob, &meta}
	if !withBlobs {
		dest = append(dest, &capture.HeatmapStored)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	capture.Timestamp = time.UnixMilli(timestamp)
	if err := json.Unmarshal([]byte(meta), &capture.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &capture, nil
}

// Проверка реализации интерфейсов
var (
	_ port.ModelRepository   = (*SQLiteStore)(nil)
	_ port.CaptureRepository = (*SQLiteStore)(nil)
)
