package entity

import "time"

// GPSFix координаты точки съёмки
type GPSFix struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	AccuracyMeters float64 `json:"acc"`
}

// CaptureMetadata метаданные снимка
type CaptureMetadata struct {
	GPS       *GPSFix `json:"gps,omitempty"`
	ModelID   *int64  `json:"modelId,omitempty"`
	ModelName *string `json:"modelName,omitempty"`
}

// CaptureRecord сохраняемый снимок: фото, необязательная тепловая карта и метаданные.
// После создания не изменяется.
type CaptureRecord struct {
	ID          int64
	Timestamp   time.Time
	Filename    string
	ImageBlob   []byte
	HeatmapBlob []byte // nil, если инференс не выполнялся или упал
	Metadata    CaptureMetadata

	// HeatmapStored карта есть в хранилище; списки снимков блобы не загружают
	HeatmapStored bool
}

// HasHeatmap сообщает, есть ли у снимка тепловая карта
func (c CaptureRecord) HasHeatmap() bool {
	return len(c.HeatmapBlob) > 0 || c.HeatmapStored
}

// ModelRecord импортированная модель
type ModelRecord struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	SourceURL string // пусто для локального импорта
	Blob      []byte
}
