package service

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
	"go.uber.org/zap"

	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
)

var autoActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "playden_presence_auto_actions_total",
	Help: "Lifecycle actions taken by the presence controller.",
}, []string{"action"})

const lockStripes = 64

type ControllerParam struct {
	fx.In

	Log      *zap.Logger
	Tracker  presencedomain.Tracker
	Sessions sessiondomain.Service
}

// controller translates presence edges into session transitions. Events for
// different stations may be handled concurrently; events for the same
// station serialize on a striped mutex before touching the database.
type controller struct {
	log      *zap.Logger
	tracker  presencedomain.Tracker
	sessions sessiondomain.Service
	locks    [lockStripes]sync.Mutex
}

func NewController(p ControllerParam) presencedomain.Controller {
	return &controller{
		log:      p.Log.Named("presence.controller"),
		tracker:  p.Tracker,
		sessions: p.Sessions,
	}
}

func (c *controller) Handle(ctx context.Context, event presencedomain.Event) error {
	lock := &c.locks[uint64(event.StationID)%lockStripes]
	lock.Lock()
	defer lock.Unlock()

	prev, err := c.tracker.LastState(ctx, event.StationID)
	if err != nil {
		return err
	}

	switch event.State {
	case presencedomain.StateUp:
		// Edge-triggered: a level-up observation changes nothing.
		if prev != presencedomain.StateUp {
			c.handleFirstConnect(ctx, event)
		}
	case presencedomain.StateDown:
		c.handleDisconnect(ctx, event)
	default:
		return nil
	}

	return c.tracker.SetLastState(ctx, event.StationID, event.State)
}

func (c *controller) handleFirstConnect(ctx context.Context, event presencedomain.Event) {
	session, err := c.sessions.ActiveByStation(ctx, event.StationID)
	if err != nil {
		c.log.Warn("presence lookup failed", zap.Error(err),
			zap.String("station_id", event.StationID.String()))
		return
	}

	if session != nil {
		if session.State() == sessiondomain.StatePaused {
			if _, err := c.sessions.Resume(ctx, session.ID.String()); err != nil {
				c.logTransitionErr("resume", event, err)
				return
			}
			autoActionsTotal.WithLabelValues("resume").Inc()
		}
		return
	}

	cooling, err := c.tracker.CooldownActive(ctx, event.StationID)
	if err != nil || cooling {
		return
	}

	_, err = c.sessions.Start(ctx, sessiondomain.StartSessionRequest{
		StationID: event.StationID.String(),
		StartedBy: sessiondomain.StartedByAuto,
	})
	if err != nil {
		// A manual start racing this one is expected; the constraint
		// rejected our copy and the next event reconciles.
		c.logTransitionErr("start", event, err)
		return
	}
	autoActionsTotal.WithLabelValues("start").Inc()
	c.log.Info("auto-started session", zap.String("station_id", event.StationID.String()))
}

func (c *controller) handleDisconnect(ctx context.Context, event presencedomain.Event) {
	// The device really left, so the next connect should be free to
	// auto-start regardless of any manual-end cooldown.
	if err := c.tracker.ClearCooldown(ctx, event.StationID); err != nil {
		c.log.Warn("failed to clear cooldown", zap.Error(err))
	}

	session, err := c.sessions.ActiveByStation(ctx, event.StationID)
	if err != nil || session == nil {
		return
	}
	if session.State() != sessiondomain.StateRunning {
		return
	}
	if _, err := c.sessions.Pause(ctx, session.ID.String()); err != nil {
		c.logTransitionErr("pause", event, err)
		return
	}
	autoActionsTotal.WithLabelValues("pause").Inc()
	c.log.Info("auto-paused session",
		zap.String("station_id", event.StationID.String()),
		zap.String("session_id", session.ID.String()))
}

func (c *controller) logTransitionErr(action string, event presencedomain.Event, err error) {
	switch sessiondomain.Classify(err) {
	case sessiondomain.KindConflict, sessiondomain.KindInvalidState:
		c.log.Debug("auto action lost a race", zap.String("action", action),
			zap.String("station_id", event.StationID.String()), zap.Error(err))
	default:
		c.log.Warn("auto action failed", zap.String("action", action),
			zap.String("station_id", event.StationID.String()), zap.Error(err))
	}
}
