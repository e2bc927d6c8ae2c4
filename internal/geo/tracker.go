package geo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marcus/courts/internal/models"
)

// ErrNoPosition is returned by a Locator that has no fix.
var ErrNoPosition = errors.New("no position available")

// Locator reports the current device position.
type Locator interface {
	Locate(ctx context.Context) (models.Position, error)
}

// StaticLocator always reports the same coordinate. A nil StaticLocator has
// no fix.
type StaticLocator struct {
	Coordinate models.Coordinate
}

// Locate implements Locator
func (l *StaticLocator) Locate(context.Context) (models.Position, error) {
	if l == nil {
		return models.Position{}, ErrNoPosition
	}
	return models.Position{Coordinate: l.Coordinate, At: time.Now()}, nil
}

// LocatorFunc adapts a function to Locator
type LocatorFunc func(ctx context.Context) (models.Position, error)

// Locate implements Locator
func (f LocatorFunc) Locate(ctx context.Context) (models.Position, error) {
	return f(ctx)
}

// Default position feed settings.
const (
	DefaultInterval    = 3 * time.Second
	DefaultMinDistance = 0.0
)

// Tracker polls a Locator and forwards samples that moved at least
// MinDistance metres from the last forwarded one.
type Tracker struct {
	Locator     Locator
	Interval    time.Duration
	MinDistance float64
	Logger      *slog.Logger
}

// Run polls until ctx is done. The first successful sample is always
// forwarded. Locator errors are logged and polling continues.
func (t *Tracker) Run(ctx context.Context, deliver func(models.Position)) error {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := t.Logger
	if log == nil {
		log = slog.Default()
	}

	var last *models.Position
	poll := func() {
		pos, err := t.Locator.Locate(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Debug("locate", "err", err)
			}
			return
		}
		if last != nil && models.Distance(last.Coordinate, pos.Coordinate) < t.MinDistance {
			return
		}
		last = &pos
		deliver(pos)
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}
