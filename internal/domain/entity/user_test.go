package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUser_DefaultState(t *testing.T) {
	u := NewUser(1, 10)
	require.Equal(t, StateMainMenu, u.State)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, int64(10), u.ChatID)
	require.Nil(t, u.Location)
}

func TestUser_FreshLocation(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser(1, 10)
	require.Nil(t, u.FreshLocation(now, time.Minute))

	u.SetLocation(GPSFix{Lat: 55.75, Lon: 37.61, AccuracyMeters: 12}, now.Add(-30*time.Second))
	fix := u.FreshLocation(now, time.Minute)
	require.NotNil(t, fix)
	require.Equal(t, 55.75, fix.Lat)

	require.Nil(t, u.FreshLocation(now.Add(time.Minute), time.Minute))
}
