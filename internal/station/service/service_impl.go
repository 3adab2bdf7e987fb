package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/clock"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  stationdomain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  stationdomain.Repository
}

func NewService(p ServiceParam) stationdomain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("station.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *service) Create(ctx context.Context, req stationdomain.CreateStationRequest) (*stationdomain.Station, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.HourlyRate <= 0 {
		return nil, errors.New("invalid_station")
	}

	now := s.clock.Now(ctx)
	station := &stationdomain.Station{
		ID:              s.genID.Generate(),
		Name:            name,
		HourlyRate:      req.HourlyRate,
		MultiHourlyRate: req.MultiHourlyRate,
		Status:          stationdomain.StatusAvailable,
		MACAddress:      normalizeMAC(req.MACAddress),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, s.db, station); err != nil {
		return nil, err
	}
	return station, nil
}

func (s *service) Update(ctx context.Context, req stationdomain.UpdateStationRequest) (*stationdomain.Station, error) {
	id, err := snowflake.ParseString(req.ID)
	if err != nil {
		return nil, stationdomain.ErrStationNotFound
	}

	station, err := s.repo.Get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		station.Name = strings.TrimSpace(*req.Name)
	}
	if req.HourlyRate != nil {
		station.HourlyRate = *req.HourlyRate
	}
	if req.MultiHourlyRate != nil {
		station.MultiHourlyRate = req.MultiHourlyRate
	}
	if req.MACAddress != nil {
		station.MACAddress = normalizeMAC(req.MACAddress)
	}
	if req.Maintenance != nil {
		// Maintenance may only be toggled while no customer occupies the
		// station; releasing occupied stations goes through session end.
		if station.Status == stationdomain.StatusOccupied {
			return nil, stationdomain.ErrStationMaintenance
		}
		if *req.Maintenance {
			station.Status = stationdomain.StatusMaintenance
		} else {
			station.Status = stationdomain.StatusAvailable
		}
	}
	station.UpdatedAt = s.clock.Now(ctx)

	if err := s.repo.Update(ctx, s.db, station); err != nil {
		return nil, err
	}
	return station, nil
}

func (s *service) Get(ctx context.Context, rawID string) (*stationdomain.Station, error) {
	id, err := snowflake.ParseString(rawID)
	if err != nil {
		return nil, stationdomain.ErrStationNotFound
	}
	return s.repo.Get(ctx, s.db, id)
}

func (s *service) List(ctx context.Context) ([]stationdomain.Station, error) {
	return s.repo.List(ctx, s.db)
}

func normalizeMAC(mac *string) *string {
	if mac == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(*mac))
	if normalized == "" {
		return nil
	}
	return &normalized
}
