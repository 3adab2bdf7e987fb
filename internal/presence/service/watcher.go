package service

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/clock"
	"github.com/playdenlabs/playden/internal/config"
	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type WatcherParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Observer    presencedomain.Observer
	Controller  presencedomain.Controller
	StationRepo stationdomain.Repository
}

// Watcher polls the presence observer and feeds readings to the controller.
// Push delivery through the HTTP surface shares the same controller, so
// either source (or both) can drive the lifecycle.
type Watcher struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	observer    presencedomain.Observer
	controller  presencedomain.Controller
	stationRepo stationdomain.Repository
}

func NewWatcher(p WatcherParam) *Watcher {
	return &Watcher{
		db:          p.DB,
		log:         p.Log.Named("presence.watcher"),
		clock:       p.Clock,
		observer:    p.Observer,
		controller:  p.Controller,
		stationRepo: p.StationRepo,
	}
}

// RunForever polls until the context is cancelled. An observer failure
// retains last-known state; the next tick retries.
func (w *Watcher) RunForever(ctx context.Context) {
	for {
		interval := 5 * time.Second
		if cfg := config.Current(); cfg != nil && cfg.Presence.PollInterval > 0 {
			interval = cfg.Presence.PollInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		if err := w.tick(ctx); err != nil {
			w.log.Warn("presence poll failed", zap.Error(err))
		}
	}
}

func (w *Watcher) tick(ctx context.Context) error {
	readings, err := w.observer.Observe(ctx)
	if err != nil {
		return err
	}

	now := w.clock.Now(ctx)
	for _, reading := range readings {
		station, err := w.stationRepo.GetByMAC(ctx, w.db, reading.MAC)
		if err != nil {
			// Devices we do not manage show up in scans; skip them.
			continue
		}

		state := presencedomain.StateDown
		if reading.Up {
			state = presencedomain.StateUp
		}
		if err := w.controller.Handle(ctx, presencedomain.Event{
			StationID:  station.ID,
			MAC:        reading.MAC,
			State:      state,
			ObservedAt: now,
		}); err != nil {
			w.log.Warn("presence event handling failed", zap.Error(err),
				zap.String("station_id", station.ID.String()))
		}
	}
	return nil
}

// NoopObserver is the default observer binding for deployments that deliver
// presence exclusively over the push webhook.
type NoopObserver struct{}

func (NoopObserver) Observe(context.Context) ([]presencedomain.Reading, error) {
	return nil, nil
}
