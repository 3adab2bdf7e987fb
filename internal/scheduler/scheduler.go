// Package scheduler runs the periodic jobs that keep billing honest between
// operator actions: timer and cost-limit alerts, outbox dispatch and the
// station/session consistency sweep.
package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/clock"
	"github.com/playdenlabs/playden/internal/config"
	notifyservice "github.com/playdenlabs/playden/internal/notify/service"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type SchedulerParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	SessionRepo sessiondomain.Repository
	StationRepo stationdomain.Repository
	Dispatcher  *notifyservice.Dispatcher
}

type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	sessionRepo sessiondomain.Repository
	stationRepo stationdomain.Repository
	dispatcher  *notifyservice.Dispatcher
}

func New(p SchedulerParam) *Scheduler {
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler"),
		clock:       p.Clock,
		genID:       p.GenID,
		sessionRepo: p.SessionRepo,
		stationRepo: p.StationRepo,
		dispatcher:  p.Dispatcher,
	}
}

// RunForever drives the job loops until the context is cancelled. Each loop
// has its own interval; a failing job logs and retries next tick.
func (s *Scheduler) RunForever(ctx context.Context) {
	go s.loop(ctx, "session_alerts", s.alertInterval, s.SessionAlertsJob)
	go s.loop(ctx, "dispatch_events", s.dispatchInterval, s.DispatchEventsJob)
	s.loop(ctx, "reconcile_stations", func() time.Duration { return time.Minute }, s.ReconcileStationsJob)
}

func (s *Scheduler) loop(ctx context.Context, name string, interval func() time.Duration, job func(context.Context) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval()):
		}
		if err := job(ctx); err != nil {
			s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		}
	}
}

func (s *Scheduler) alertInterval() time.Duration {
	if cfg := config.Current(); cfg != nil && cfg.Sessions.AlertInterval > 0 {
		return cfg.Sessions.AlertInterval
	}
	return 30 * time.Second
}

func (s *Scheduler) dispatchInterval() time.Duration {
	if cfg := config.Current(); cfg != nil && cfg.Notify.Interval > 0 {
		return cfg.Notify.Interval
	}
	return 5 * time.Second
}

// DispatchEventsJob drains the notification outbox.
func (s *Scheduler) DispatchEventsJob(ctx context.Context) error {
	n, err := s.dispatcher.ProcessEvents(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug("dispatched session events", zap.Int("count", n))
	}
	return nil
}

// ReconcileStationsJob repairs drift between station status and session
// reality: a station marked occupied with no active session is reset to
// available. The reverse case (active session on an available station) is
// logged only; ending a session is an operator decision.
func (s *Scheduler) ReconcileStationsJob(ctx context.Context) error {
	stations, err := s.stationRepo.List(ctx, s.db)
	if err != nil {
		return err
	}

	for _, station := range stations {
		session, err := s.sessionRepo.GetActiveByStation(ctx, s.db, station.ID)
		if err != nil {
			return err
		}

		switch {
		case station.Status == stationdomain.StatusOccupied && session == nil:
			s.log.Warn("occupied station has no active session, resetting",
				zap.String("station_id", station.ID.String()))
			if err := s.stationRepo.UpdateStatus(ctx, s.db, station.ID, stationdomain.StatusAvailable); err != nil {
				return err
			}
		case station.Status == stationdomain.StatusAvailable && session != nil:
			s.log.Warn("active session on a station marked available",
				zap.String("station_id", station.ID.String()),
				zap.String("session_id", session.ID.String()))
		}
	}
	return nil
}
