package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptureRecord_HasHeatmap(t *testing.T) {
	require.False(t, CaptureRecord{}.HasHeatmap())
	require.True(t, CaptureRecord{HeatmapBlob: []byte("png")}.HasHeatmap())
	// запись из списка: блоб не загружен, но карта есть
	require.True(t, CaptureRecord{HeatmapStored: true}.HasHeatmap())
}
