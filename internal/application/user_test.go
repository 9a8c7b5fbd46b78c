package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
	"artifact-sifter/internal/infrastructure/storage"
)

func TestUserService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateProcessing)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)
}

func TestUserService_LocatorUsesFreshLocation(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	locator := svc.Locator(3, 30)
	_, err := locator.Locate(ctx)
	require.ErrorIs(t, err, port.ErrGeolocationUnavailable)

	require.NoError(t, svc.ShareLocation(ctx, 3, 30, entity.GPSFix{Lat: 55.75, Lon: 37.62, AccuracyMeters: 8}))

	fix, err := locator.Locate(ctx)
	require.NoError(t, err)
	require.Equal(t, 55.75, fix.Lat)

	// Устаревшая геопозиция не используется
	now = now.Add(LocationMaxAge + time.Second)
	_, err = locator.Locate(ctx)
	require.ErrorIs(t, err, port.ErrGeolocationUnavailable)
}
