package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"artifact-sifter/internal/domain/entity"
	"artifact-sifter/internal/domain/port"
)

// DefaultFixMaxAge сколько живёт последняя позиция
const DefaultFixMaxAge = 10 * time.Second

const latestFixKey = "latest"

// FixCache хранит последнюю позицию ограниченное время и ждёт новую.
type FixCache struct {
	fixes *cache.Cache

	mu      sync.Mutex
	arrived chan struct{}
}

// NewFixCache создаёт кэш. maxAge <= 0 — DefaultFixMaxAge.
func NewFixCache(maxAge time.Duration) *FixCache {
	if maxAge <= 0 {
		maxAge = DefaultFixMaxAge
	}
	return &FixCache{
		fixes:   cache.New(maxAge, 0), // один ключ, фоновая очистка не нужна
		arrived: make(chan struct{}),
	}
}

// Put сохраняет позицию и будит ожидающих.
func (c *FixCache) Put(fix entity.GPSFix) {
	c.fixes.SetDefault(latestFixKey, fix)

	c.mu.Lock()
	close(c.arrived)
	c.arrived = make(chan struct{})
	c.mu.Unlock()
}

// Latest возвращает позицию, если она ещё не устарела.
func (c *FixCache) Latest() (*entity.GPSFix, bool) {
	v, ok := c.fixes.Get(latestFixKey)
	if !ok {
		return nil, false
	}
	fix := v.(entity.GPSFix)
	return &fix, true
}

// Locate возвращает свежую позицию или ждёт следующую до отмены ctx.
func (c *FixCache) Locate(ctx context.Context) (*entity.GPSFix, error) {
	for {
		c.mu.Lock()
		arrived := c.arrived
		c.mu.Unlock()

		if fix, ok := c.Latest(); ok {
			return fix, nil
		}

		select {
		case <-arrived:
		case <-ctx.Done():
			return nil, port.ErrGeolocationUnavailable
		}
	}
}

var _ port.Locator = (*FixCache)(nil)
