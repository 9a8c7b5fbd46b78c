// Package sensor читает ориентацию и координаты устройства по MQTT или последовательному порту.
package sensor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"artifact-sifter/internal/domain/entity"
)

// ParseSample разбирает отсчёт ориентации.
// Поддерживается JSON {"pitch":..,"roll":..} (null — нет значения) и строка "pitch,roll".
func ParseSample(data []byte) (entity.OrientationSample, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return entity.OrientationSample{}, errors.New("empty orientation sample")
	}

	if data[0] == '{' {
		var sample entity.OrientationSample
		if err := json.Unmarshal(data, &sample); err != nil {
			return entity.OrientationSample{}, fmt.Errorf("decode orientation sample: %w", err)
		}
		return sample, nil
	}

	fields := strings.Split(string(data), ",")
	if len(fields) != 2 {
		return entity.OrientationSample{}, fmt.Errorf("malformed orientation sample %q", data)
	}

	pitch, err := parseOptional(fields[0])
	if err != nil {
		return entity.OrientationSample{}, fmt.Errorf("pitch: %w", err)
	}
	roll, err := parseOptional(fields[1])
	if err != nil {
		return entity.OrientationSample{}, fmt.Errorf("roll: %w", err)
	}
	return entity.OrientationSample{Pitch: pitch, Roll: roll}, nil
}

func parseOptional(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseFix разбирает координаты {"lat":..,"lon":..,"acc":..}.
func ParseFix(data []byte) (entity.GPSFix, error) {
	var raw struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
		Acc float64  `json:"acc"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return entity.GPSFix{}, fmt.Errorf("decode gps fix: %w", err)
	}
	if raw.Lat == nil || raw.Lon == nil {
		return entity.GPSFix{}, errors.New("gps fix without coordinates")
	}
	return entity.GPSFix{Lat: *raw.Lat, Lon: *raw.Lon, AccuracyMeters: raw.Acc}, nil
}
