package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	app "artifact-sifter/internal/application"
	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/infrastructure/vision"
)

func TestParseID(t *testing.T) {
	id, ok := parseID(" 42 ")
	require.True(t, ok)
	require.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "-1", "0"} {
		_, ok := parseID(bad)
		require.False(t, ok, bad)
	}
}

func TestParseAddModel(t *testing.T) {
	name, url, ok := parseAddModel("roman coins https://example.org/coins.tflite")
	require.True(t, ok)
	require.Equal(t, "roman coins", name)
	require.Equal(t, "https://example.org/coins.tflite", url)

	_, _, ok = parseAddModel("onlyname")
	require.False(t, ok)
}

func TestFormatStatus(t *testing.T) {
	text := formatStatus(entity.ReadinessMisaligned, []entity.Hint{entity.HintTiltLeft, entity.HintTiltAway}, false, nil)
	require.Contains(t, text, "не выровнено")
	require.Contains(t, text, "наклоните влево, наклоните от себя")
	require.Contains(t, text, "не выбрана")

	text = formatStatus(entity.ReadinessAligned, nil, true, &app.ActiveModel{ID: 2, Name: "coins"})
	require.Contains(t, text, "не подключён")
	require.Contains(t, text, "coins (#2)")
}

func TestFormatCaption(t *testing.T) {
	name := "coins"
	record := entity.CaptureRecord{
		ID:       5,
		Filename: "20240305_140709",
		Metadata: entity.CaptureMetadata{
			GPS:       &entity.GPSFix{Lat: 41.9, Lon: 12.5, AccuracyMeters: 6},
			ModelName: &name,
		},
	}

	text := formatCaption(record, &vision.Summary{Peak: 0.9, Mean: 0.25, Coverage: 0.1})
	require.Contains(t, text, "#5 20240305_140709")
	require.Contains(t, text, "coins")
	require.Contains(t, text, "максимум 90%")
	require.Contains(t, text, "41.900000, 12.500000")

	bare := formatCaption(entity.CaptureRecord{ID: 1, Filename: "x"}, nil)
	require.NotContains(t, bare, "📍")
	require.NotContains(t, bare, "🔥")
}

func TestFormatModelsMarksActive(t *testing.T) {
	models := []entity.ModelRecord{
		{ID: 1, Name: "a", CreatedAt: time.Now()},
		{ID: 2, Name: "b", CreatedAt: time.Now()},
	}
	text := formatModels(models, &app.ActiveModel{ID: 2})
	require.Contains(t, text, "▫️ #1 a")
	require.Contains(t, text, "✅ #2 b")

	require.Equal(t, msgNoModels, formatModels(nil, nil))
}

func TestFormatCapturesLimitsPage(t *testing.T) {
	var captures []entity.CaptureRecord
	for i := 1; i <= capturesPageSize+5; i++ {
		captures = append(captures, entity.CaptureRecord{ID: int64(i), Filename: "f"})
	}
	text := formatCaptures(captures)
	require.Contains(t, text, "#10 f")
	require.NotContains(t, text, "#11 f")
	require.Equal(t, msgNoCaptures, formatCaptures(nil))
}
