package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/config"
	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
	"github.com/playdenlabs/playden/internal/session/ledger"
)

// SessionAlertsJob scans active sessions for timer and cost-limit crossings.
// Each armed alert fires exactly once; setting a new timer or limit re-arms
// it. Events go through the outbox like every other notification.
func (s *Scheduler) SessionAlertsJob(ctx context.Context) error {
	sessions, err := s.sessionRepo.ListActive(ctx, s.db)
	if err != nil {
		return err
	}

	now := s.clock.Now(ctx)
	for i := range sessions {
		if err := s.checkSession(ctx, &sessions[i], now); err != nil {
			s.log.Error("session alert check failed", zap.Error(err),
				zap.String("session_id", sessions[i].ID.String()))
		}
	}
	return nil
}

func (s *Scheduler) checkSession(ctx context.Context, session *sessiondomain.Session, now time.Time) error {
	timerDue := session.TimerMinutes != nil && !session.TimerNotified
	limitDue := session.CostLimit != nil && !session.CostLimitNotified
	if !timerDue && !limitDue {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Re-read under the transaction so a concurrent end or alert reset
		// is not overwritten.
		session, err := s.sessionRepo.Get(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return nil
		}

		if session.TimerMinutes != nil && !session.TimerNotified {
			elapsed := billableMinutes(*session, now)
			remaining := *session.TimerMinutes - elapsed
			switch {
			case remaining <= 0:
				if err := s.emit(ctx, tx, session, notifydomain.EventTimerExpired, map[string]any{
					"timer_minutes":   *session.TimerMinutes,
					"elapsed_minutes": elapsed,
				}); err != nil {
					return err
				}
				session.TimerNotified = true
			case remaining <= warnMinutes():
				if err := s.emit(ctx, tx, session, notifydomain.EventTimerWarning, map[string]any{
					"timer_minutes":     *session.TimerMinutes,
					"remaining_minutes": remaining,
				}); err != nil {
					return err
				}
				session.TimerNotified = true
			}
		}

		if session.CostLimit != nil && !session.CostLimitNotified {
			segments, err := s.sessionRepo.ListSegments(ctx, tx, session.ID)
			if err != nil {
				return err
			}
			accrued := ledger.Accrue(segments, now) +
				session.OrdersCost + session.ExtraCharges + session.TransferredCost
			if accrued >= *session.CostLimit {
				if err := s.emit(ctx, tx, session, notifydomain.EventCostLimitReached, map[string]any{
					"cost_limit":   *session.CostLimit,
					"accrued_cost": accrued,
				}); err != nil {
					return err
				}
				session.CostLimitNotified = true
			}
		}

		session.UpdatedAt = now
		return s.sessionRepo.Update(ctx, tx, session)
	})
}

func (s *Scheduler) emit(ctx context.Context, tx *gorm.DB, session *sessiondomain.Session, eventType notifydomain.EventType, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := notifydomain.SessionEvent{
		ID:        s.genID.Generate(),
		SessionID: session.ID,
		StationID: session.StationID,
		EventType: eventType,
		Payload:   raw,
		CreatedAt: s.clock.Now(ctx),
	}
	return tx.WithContext(ctx).Create(&event).Error
}

func warnMinutes() int64 {
	if cfg := config.Current(); cfg != nil && cfg.Sessions.TimerWarnMinutes > 0 {
		return int64(cfg.Sessions.TimerWarnMinutes)
	}
	return 5
}

func billableMinutes(session sessiondomain.Session, until time.Time) int64 {
	elapsed := until.Sub(session.StartedAt).Milliseconds() - session.TotalPausedMs
	if session.PausedAt != nil {
		elapsed -= until.Sub(*session.PausedAt).Milliseconds()
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed / 60_000
}
