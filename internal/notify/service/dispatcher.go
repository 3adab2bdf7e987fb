package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/clock"
	"github.com/playdenlabs/playden/internal/config"
	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
)

const defaultBatchSize = 50

type DispatcherParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Notifiers []notifydomain.Notifier `group:"notifiers"`
}

// Dispatcher drains the session_events outbox and fans events out to the
// configured sinks. A sink failure is logged and the event still counts as
// dispatched; billing state never waits on delivery.
type Dispatcher struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	notifiers []notifydomain.Notifier
}

func NewDispatcher(p DispatcherParam) *Dispatcher {
	return &Dispatcher{
		db:        p.DB,
		log:       p.Log.Named("notify.dispatcher"),
		clock:     p.Clock,
		notifiers: p.Notifiers,
	}
}

func (d *Dispatcher) ProcessEvents(ctx context.Context) (int, error) {
	batch := defaultBatchSize
	if cfg := config.Current(); cfg != nil && cfg.Notify.DispatchBatch > 0 {
		batch = cfg.Notify.DispatchBatch
	}

	var events []notifydomain.SessionEvent
	err := d.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("id ASC").
		Limit(batch).
		Find(&events).Error
	if err != nil {
		return 0, err
	}

	for _, event := range events {
		for _, notifier := range d.notifiers {
			if err := notifier.Notify(ctx, event); err != nil {
				d.log.Warn("notification delivery failed",
					zap.String("event_id", event.ID.String()),
					zap.String("event_type", string(event.EventType)),
					zap.Error(err))
			}
		}

		now := d.clock.Now(ctx)
		err := d.db.WithContext(ctx).
			Model(&notifydomain.SessionEvent{}).
			Where("id = ?", event.ID).
			Update("dispatched_at", now).Error
		if err != nil {
			return 0, err
		}
	}

	return len(events), nil
}
