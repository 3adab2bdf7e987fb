package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
)

type repository struct{}

func NewRepository() sessiondomain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*sessiondomain.Session, error) {
	var session sessiondomain.Session
	err := db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sessiondomain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) GetActiveByStation(ctx context.Context, db *gorm.DB, stationID snowflake.ID) (*sessiondomain.Session, error) {
	var session sessiondomain.Session
	err := db.WithContext(ctx).
		Where("station_id = ? AND ended_at IS NULL", stationID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) LastEndedByStation(ctx context.Context, db *gorm.DB, stationID snowflake.ID) (*sessiondomain.Session, error) {
	var session sessiondomain.Session
	err := db.WithContext(ctx).
		Where("station_id = ? AND ended_at IS NOT NULL", stationID).
		Order("ended_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) ListActive(ctx context.Context, db *gorm.DB) ([]sessiondomain.Session, error) {
	var sessions []sessiondomain.Session
	err := db.WithContext(ctx).
		Where("ended_at IS NULL").
		Order("started_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *repository) ListRunning(ctx context.Context, db *gorm.DB) ([]sessiondomain.Session, error) {
	var sessions []sessiondomain.Session
	err := db.WithContext(ctx).
		Where("ended_at IS NULL AND paused_at IS NULL").
		Find(&sessions).Error
	return sessions, err
}

func (r *repository) ListEnded(ctx context.Context, db *gorm.DB, beforeID snowflake.ID, limit int) ([]sessiondomain.Session, error) {
	q := db.WithContext(ctx).Where("ended_at IS NOT NULL")
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var sessions []sessiondomain.Session
	err := q.Order("id DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}

func (r *repository) CountEnded(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&sessiondomain.Session{}).
		Where("ended_at IS NOT NULL").
		Count(&count).Error
	return count, err
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, session *sessiondomain.Session) error {
	err := db.WithContext(ctx).Create(session).Error
	if isDuplicate(err) {
		return sessiondomain.ErrStationBusy
	}
	return err
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, session *sessiondomain.Session) error {
	err := db.WithContext(ctx).Save(session).Error
	if isDuplicate(err) {
		return sessiondomain.ErrStationBusy
	}
	return err
}

func (r *repository) OpenSegment(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (*sessiondomain.Segment, error) {
	var segment sessiondomain.Segment
	err := db.WithContext(ctx).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		First(&segment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &segment, nil
}

func (r *repository) ListSegments(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]sessiondomain.Segment, error) {
	var segments []sessiondomain.Segment
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("started_at ASC").
		Find(&segments).Error
	return segments, err
}

func (r *repository) CreateSegment(ctx context.Context, db *gorm.DB, segment *sessiondomain.Segment) error {
	return db.WithContext(ctx).Create(segment).Error
}

func (r *repository) UpdateSegment(ctx context.Context, db *gorm.DB, segment *sessiondomain.Segment) error {
	return db.WithContext(ctx).Save(segment).Error
}

func (r *repository) GetOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*sessiondomain.Order, error) {
	var order sessiondomain.Order
	err := db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sessiondomain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]sessiondomain.Order, error) {
	var orders []sessiondomain.Order
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) CreateOrder(ctx context.Context, db *gorm.DB, order *sessiondomain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repository) DeleteOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&sessiondomain.Order{}, "id = ?", id).Error
}

func (r *repository) GetCharge(ctx context.Context, db *gorm.DB, id snowflake.ID) (*sessiondomain.Charge, error) {
	var charge sessiondomain.Charge
	err := db.WithContext(ctx).First(&charge, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sessiondomain.ErrChargeNotFound
		}
		return nil, err
	}
	return &charge, nil
}

func (r *repository) ListCharges(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]sessiondomain.Charge, error) {
	var charges []sessiondomain.Charge
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&charges).Error
	return charges, err
}

func (r *repository) CreateCharge(ctx context.Context, db *gorm.DB, charge *sessiondomain.Charge) error {
	return db.WithContext(ctx).Create(charge).Error
}

func (r *repository) UpdateCharge(ctx context.Context, db *gorm.DB, charge *sessiondomain.Charge) error {
	return db.WithContext(ctx).Save(charge).Error
}

func (r *repository) DeleteCharge(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&sessiondomain.Charge{}, "id = ?", id).Error
}

func (r *repository) CreateTransfer(ctx context.Context, db *gorm.DB, transfer *sessiondomain.Transfer) error {
	return db.WithContext(ctx).Create(transfer).Error
}

// isDuplicate detects the active-session uniqueness violation across the
// supported drivers, with a string fallback for drivers that do not
// translate duplicate-key errors.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
