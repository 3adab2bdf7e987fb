package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
	"github.com/playdenlabs/playden/internal/session/ledger"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
	"github.com/playdenlabs/playden/pkg/db/pagination"
)

func (s *service) Get(ctx context.Context, sessionID string) (*sessiondomain.Session, error) {
	id, err := parseID(sessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, s.db, id)
}

func (s *service) ListActive(ctx context.Context) ([]sessiondomain.Session, error) {
	return s.repo.ListActive(ctx, s.db)
}

// History pages through ended sessions, newest first, with an opaque cursor.
func (s *service) History(ctx context.Context, req sessiondomain.HistoryRequest) (*sessiondomain.HistoryResponse, error) {
	limit := pagination.Limit(req.PageSize)
	before := snowflake.ID(pagination.DecodeToken(req.PageToken))

	sessions, err := s.repo.ListEnded(ctx, s.db, before, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountEnded(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := &sessiondomain.HistoryResponse{
		Sessions: sessions,
		PageInfo: pagination.PageInfo{TotalCount: total},
	}
	if len(sessions) == limit {
		resp.PageInfo.NextPageToken = pagination.EncodeToken(int64(sessions[len(sessions)-1].ID))
	}
	return resp, nil
}

func (s *service) ActiveByStation(ctx context.Context, stationID snowflake.ID) (*sessiondomain.Session, error) {
	return s.repo.GetActiveByStation(ctx, s.db, stationID)
}

// StationSnapshot returns the live operator view: the active session when
// present (with a cost estimate accrued to now), otherwise the most
// recently ended one.
func (s *service) StationSnapshot(ctx context.Context, stationID string) (*sessiondomain.StationSnapshot, error) {
	id, err := parseID(stationID, stationdomain.ErrStationNotFound)
	if err != nil {
		return nil, err
	}

	station, err := s.stationRepo.Get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	snapshot := &sessiondomain.StationSnapshot{Station: *station}

	session, err := s.repo.GetActiveByStation(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		last, err := s.repo.LastEndedByStation(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if last == nil {
			return snapshot, nil
		}
		snapshot.Session = last
		if last.TotalCost != nil {
			snapshot.GamingCost = *last.TotalCost
		}
		snapshot.ElapsedMinutes = billableMinutes(*last, *last.EndedAt)
		snapshot.TotalBill = ledger.Settle(*last)
		return snapshot, nil
	}

	now := s.clock.Now(ctx)
	segments, err := s.repo.ListSegments(ctx, s.db, session.ID)
	if err != nil {
		return nil, err
	}
	gaming := ledger.Accrue(segments, now)

	snapshot.Session = session
	snapshot.GamingCost = gaming
	snapshot.ElapsedMinutes = billableMinutes(*session, now)
	snapshot.TotalBill = gaming + session.OrdersCost + session.ExtraCharges + session.TransferredCost
	return snapshot, nil
}

func (s *service) SetTimer(ctx context.Context, sessionID string, minutes *int64) (*sessiondomain.Session, error) {
	return s.updateAlert(ctx, sessionID, func(session *sessiondomain.Session) error {
		if minutes != nil && *minutes <= 0 {
			return sessiondomain.ErrInvalidAmount
		}
		session.TimerMinutes = minutes
		session.TimerNotified = false
		return nil
	})
}

func (s *service) SetCostLimit(ctx context.Context, sessionID string, limit *int64) (*sessiondomain.Session, error) {
	return s.updateAlert(ctx, sessionID, func(session *sessiondomain.Session) error {
		if limit != nil && *limit <= 0 {
			return sessiondomain.ErrInvalidAmount
		}
		session.CostLimit = limit
		session.CostLimitNotified = false
		return nil
	})
}

func (s *service) updateAlert(ctx context.Context, sessionID string, mutate func(*sessiondomain.Session) error) (*sessiondomain.Session, error) {
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
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}
		if err := mutate(session); err != nil {
			return err
		}
		session.UpdatedAt = s.clock.Now(ctx)
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateStartTime is the audited corrective edit. On an ended session it
// recomputes the gaming cost from the adjusted timeline, replacing any
// earlier operator override; the note trail records both figures.
func (s *service) UpdateStartTime(ctx context.Context, req sessiondomain.UpdateStartTimeRequest) (*sessiondomain.Session, error) {
	id, err := parseID(req.SessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	newStart := req.StartedAt.UTC()

	var session *sessiondomain.Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}

		segments, err := s.repo.ListSegments(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		if len(segments) == 0 {
			return sessiondomain.ErrSessionNotFound
		}
		first := segments[0]
		if first.EndedAt != nil && !newStart.Before(*first.EndedAt) {
			return sessiondomain.ErrInvalidAmount
		}

		now := s.clock.Now(ctx)
		oldStart := session.StartedAt
		first.StartedAt = newStart
		if err := s.repo.UpdateSegment(ctx, tx, &first); err != nil {
			return err
		}
		segments[0] = first

		session.StartedAt = newStart
		note := fmt.Sprintf("start time corrected from %s to %s",
			oldStart.Format(time.RFC3339), newStart.Format(time.RFC3339))
		if req.Note != "" {
			note += ": " + req.Note
		}

		if session.State() == sessiondomain.StateEnded {
			recomputed := ledger.Accrue(segments, *session.EndedAt)
			note += fmt.Sprintf(" (total recomputed from %d to %d)", *session.TotalCost, recomputed)
			session.TotalCost = &recomputed
		}

		appendNote(session, note)
		session.UpdatedAt = now
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
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
