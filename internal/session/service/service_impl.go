package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/clock"
	"github.com/playdenlabs/playden/internal/config"
	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
	"github.com/playdenlabs/playden/internal/session/ledger"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        sessiondomain.Repository
	StationRepo stationdomain.Repository
	MenuRepo    menudomain.Repository
	Cooldowns   presencedomain.CooldownSetter
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        sessiondomain.Repository
	stationRepo stationdomain.Repository
	menuRepo    menudomain.Repository
	cooldowns   presencedomain.CooldownSetter
}

func NewService(p ServiceParam) sessiondomain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("session.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		stationRepo: p.StationRepo,
		menuRepo:    p.MenuRepo,
		cooldowns:   p.Cooldowns,
	}
}

func (s *service) Start(ctx context.Context, req sessiondomain.StartSessionRequest) (*sessiondomain.Session, error) {
	stationID, err := parseID(req.StationID, stationdomain.ErrStationNotFound)
	if err != nil {
		return nil, err
	}
	mode, err := stationdomain.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	startedBy := req.StartedBy
	if startedBy == "" {
		startedBy = sessiondomain.StartedByManual
	}

	now := s.clock.Now(ctx)
	startedAt := now
	if req.StartedAt != nil {
		startedAt = req.StartedAt.UTC()
	}

	var session *sessiondomain.Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		station, err := s.stationRepo.Get(ctx, tx, stationID)
		if err != nil {
			return err
		}
		if station.Status == stationdomain.StatusMaintenance {
			return stationdomain.ErrStationMaintenance
		}

		active, err := s.repo.GetActiveByStation(ctx, tx, stationID)
		if err != nil {
			return err
		}
		if active != nil {
			return sessiondomain.ErrStationBusy
		}

		session = &sessiondomain.Session{
			ID:          s.genID.Generate(),
			StationID:   stationID,
			StartedAt:   startedAt,
			CurrentMode: mode,
			HourlyRate:  station.RateFor(mode),
			StartedBy:   startedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		// The partial unique index backs this up: a lost race surfaces as
		// ErrStationBusy instead of a second active session.
		if err := s.repo.Create(ctx, tx, session); err != nil {
			return err
		}

		segment := &sessiondomain.Segment{
			ID:         s.genID.Generate(),
			SessionID:  session.ID,
			Mode:       mode,
			StartedAt:  startedAt,
			HourlyRate: session.HourlyRate,
			CreatedAt:  now,
		}
		if err := s.repo.CreateSegment(ctx, tx, segment); err != nil {
			return err
		}

		if err := s.stationRepo.UpdateStatus(ctx, tx, stationID, stationdomain.StatusOccupied); err != nil {
			return err
		}

		return s.appendEvent(ctx, tx, session, notifydomain.EventSessionStarted, map[string]any{
			"mode":       mode,
			"started_by": startedBy,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("session started",
		zap.String("session_id", session.ID.String()),
		zap.String("station_id", stationID.String()),
		zap.String("started_by", string(startedBy)))
	return session, nil
}

// Pause closes the open segment so accrued cost stays frozen for the whole
// pause. Idempotent: pausing a paused session succeeds without mutation.
func (s *service) Pause(ctx context.Context, sessionID string) (*sessiondomain.Session, error) {
	id, err := parseID(sessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}

	var session *sessiondomain.Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		switch session.State() {
		case sessiondomain.StateEnded:
			return sessiondomain.ErrSessionEnded
		case sessiondomain.StatePaused:
			return nil
		}

		now := s.clock.Now(ctx)
		if err := s.closeOpenSegment(ctx, tx, session.ID, now); err != nil {
			return err
		}
		session.PausedAt = &now
		session.UpdatedAt = now
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Resume reopens a segment at the current mode and rate. Idempotent: a
// running session resumes to itself.
func (s *service) Resume(ctx context.Context, sessionID string) (*sessiondomain.Session, error) {
	id, err := parseID(sessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}

	var session *sessiondomain.Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		switch session.State() {
		case sessiondomain.StateEnded:
			return sessiondomain.ErrSessionEnded
		case sessiondomain.StateRunning:
			return nil
		}

		now := s.clock.Now(ctx)
		session.TotalPausedMs += now.Sub(*session.PausedAt).Milliseconds()
		session.PausedAt = nil
		session.UpdatedAt = now

		segment := &sessiondomain.Segment{
			ID:         s.genID.Generate(),
			SessionID:  session.ID,
			Mode:       session.CurrentMode,
			StartedAt:  now,
			HourlyRate: session.HourlyRate,
			CreatedAt:  now,
		}
		if err := s.repo.CreateSegment(ctx, tx, segment); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) SwitchMode(ctx context.Context, sessionID, rawMode string) (*sessiondomain.Session, error) {
	id, err := parseID(sessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	mode, err := stationdomain.ParseMode(rawMode)
	if err != nil {
		return nil, err
	}

	var session *sessiondomain.Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}
		if session.CurrentMode == mode {
			return nil
		}

		station, err := s.stationRepo.Get(ctx, tx, session.StationID)
		if err != nil {
			return err
		}
		rate := station.RateFor(mode)
		now := s.clock.Now(ctx)

		// While paused there is no open segment; the new mode takes effect
		// on resume.
		if session.State() == sessiondomain.StateRunning {
			if err := s.closeOpenSegment(ctx, tx, session.ID, now); err != nil {
				return err
			}
			segment := &sessiondomain.Segment{
				ID:         s.genID.Generate(),
				SessionID:  session.ID,
				Mode:       mode,
				StartedAt:  now,
				HourlyRate: rate,
				CreatedAt:  now,
			}
			if err := s.repo.CreateSegment(ctx, tx, segment); err != nil {
				return err
			}
		}

		session.CurrentMode = mode
		session.HourlyRate = rate
		session.UpdatedAt = now
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) SwitchStation(ctx context.Context, sessionID, newStationID string) (*sessiondomain.Session, error) {
	id, err := parseID(sessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	targetID, err := parseID(newStationID, stationdomain.ErrStationNotFound)
	if err != nil {
		return nil, err
	}

	var session *sessiondomain.Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}
		if session.StationID == targetID {
			return sessiondomain.ErrSameStation
		}

		target, err := s.stationRepo.Get(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if target.Status == stationdomain.StatusMaintenance {
			return stationdomain.ErrStationMaintenance
		}
		if target.Status == stationdomain.StatusOccupied {
			return sessiondomain.ErrStationBusy
		}
		targetActive, err := s.repo.GetActiveByStation(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if targetActive != nil {
			return sessiondomain.ErrStationBusy
		}

		now := s.clock.Now(ctx)
		oldStationID := session.StationID
		session.StationID = targetID
		// The timeline is station-agnostic: segments keep billing at the
		// rates already snapshotted.
		appendNote(session, fmt.Sprintf("moved from station %s to %s at %s",
			oldStationID, targetID, now.Format(time.RFC3339)))
		session.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, session); err != nil {
			return err
		}
		if err := s.stationRepo.UpdateStatus(ctx, tx, oldStationID, stationdomain.StatusAvailable); err != nil {
			return err
		}
		return s.stationRepo.UpdateStatus(ctx, tx, targetID, stationdomain.StatusOccupied)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) End(ctx context.Context, req sessiondomain.EndSessionRequest) (*sessiondomain.Session, error) {
	id, err := parseID(req.SessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}

	var session *sessiondomain.Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}

		now := s.clock.Now(ctx)
		if session.PausedAt != nil {
			session.TotalPausedMs += now.Sub(*session.PausedAt).Milliseconds()
			session.PausedAt = nil
		} else if err := s.closeOpenSegment(ctx, tx, session.ID, now); err != nil {
			return err
		}

		segments, err := s.repo.ListSegments(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		gaming := ledger.Accrue(segments, now)
		if req.CustomTotalCost != nil {
			// Operator override: the supplied figure is the full bill, so
			// the gaming share is whatever remains after the accumulators.
			gaming = *req.CustomTotalCost - session.OrdersCost - session.ExtraCharges - session.TransferredCost
			if gaming < 0 {
				gaming = 0
			}
		}

		session.EndedAt = &now
		session.TotalCost = &gaming
		session.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, session); err != nil {
			return err
		}
		if err := s.stationRepo.UpdateStatus(ctx, tx, session.StationID, stationdomain.StatusAvailable); err != nil {
			return err
		}

		return s.appendEvent(ctx, tx, session, notifydomain.EventSessionEnded, map[string]any{
			"gaming_cost": gaming,
			"total_bill":  ledger.Settle(*session),
		})
	})
	if err != nil {
		return nil, err
	}

	// Operator-driven end: suppress auto-start until the cooldown lapses or
	// the device is seen going down.
	cooldown := 5 * time.Minute
	if cfg := config.Current(); cfg != nil && cfg.Presence.ManualEndCooldown > 0 {
		cooldown = cfg.Presence.ManualEndCooldown
	}
	if err := s.cooldowns.SetCooldown(ctx, session.StationID, cooldown); err != nil {
		s.log.Warn("failed to set manual-end cooldown", zap.Error(err),
			zap.String("station_id", session.StationID.String()))
	}

	s.log.Info("session ended",
		zap.String("session_id", session.ID.String()),
		zap.Int64("total_cost", *session.TotalCost))
	return session, nil
}

func (s *service) Transfer(ctx context.Context, req sessiondomain.TransferSessionRequest) (*sessiondomain.Transfer, error) {
	fromID, err := parseID(req.FromSessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	toID, err := parseID(req.ToSessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, sessiondomain.ErrTransferToSelf
	}

	var transfer *sessiondomain.Transfer
	err = s.db.Transaction(func(tx *gorm.DB) error {
		source, err := s.repo.Get(ctx, tx, fromID)
		if err != nil {
			return err
		}
		target, err := s.repo.Get(ctx, tx, toID)
		if err != nil {
			return err
		}
		if source.State() == sessiondomain.StateEnded || target.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}

		now := s.clock.Now(ctx)
		if source.PausedAt != nil {
			source.TotalPausedMs += now.Sub(*source.PausedAt).Milliseconds()
			source.PausedAt = nil
		} else if err := s.closeOpenSegment(ctx, tx, source.ID, now); err != nil {
			return err
		}

		segments, err := s.repo.ListSegments(ctx, tx, source.ID)
		if err != nil {
			return err
		}
		gaming := ledger.Accrue(segments, now)
		var ordersAmount int64
		if req.IncludeOrders {
			ordersAmount = source.OrdersCost
		}
		// Charges and previously received transfers always follow the bill;
		// orders only when requested.
		totalAmount := gaming + ordersAmount + source.ExtraCharges + source.TransferredCost

		transfer = &sessiondomain.Transfer{
			ID:            s.genID.Generate(),
			FromSessionID: source.ID,
			ToSessionID:   target.ID,
			FromStationID: source.StationID,
			GamingAmount:  gaming,
			OrdersAmount:  ordersAmount,
			TotalAmount:   totalAmount,
			CreatedAt:     now,
		}
		if err := s.repo.CreateTransfer(ctx, tx, transfer); err != nil {
			return err
		}

		target.TransferredCost += totalAmount
		target.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, target); err != nil {
			return err
		}

		// The moved value comes off the source so its settlement keeps only
		// what stayed behind (orders, when not included).
		zero := int64(0)
		source.EndedAt = &now
		source.TotalCost = &zero
		source.ExtraCharges = 0
		source.TransferredCost = 0
		if req.IncludeOrders {
			source.OrdersCost = 0
		}
		appendNote(source, fmt.Sprintf("cost %d transferred to session %s", totalAmount, target.ID))
		source.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, source); err != nil {
			return err
		}
		if err := s.stationRepo.UpdateStatus(ctx, tx, source.StationID, stationdomain.StatusAvailable); err != nil {
			return err
		}

		return s.appendEvent(ctx, tx, source, notifydomain.EventSessionTransferred, map[string]any{
			"to_session_id": target.ID.String(),
			"total_amount":  totalAmount,
		})
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *service) closeOpenSegment(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID, at time.Time) error {
	segment, err := s.repo.OpenSegment(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if segment == nil {
		return nil
	}
	segment.EndedAt = &at
	return s.repo.UpdateSegment(ctx, tx, segment)
}

func appendNote(session *sessiondomain.Session, note string) {
	if session.Notes == "" {
		session.Notes = note
		return
	}
	session.Notes += "\n" + note
}

func parseID(raw string, notFound error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, notFound
	}
	return id, nil
}
