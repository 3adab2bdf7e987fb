package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type repository struct{}

func NewRepository() stationdomain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*stationdomain.Station, error) {
	var station stationdomain.Station
	err := db.WithContext(ctx).First(&station, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stationdomain.ErrStationNotFound
		}
		return nil, err
	}
	return &station, nil
}

func (r *repository) GetByMAC(ctx context.Context, db *gorm.DB, mac string) (*stationdomain.Station, error) {
	var station stationdomain.Station
	err := db.WithContext(ctx).First(&station, "mac_address = ?", mac).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stationdomain.ErrStationNotFound
		}
		return nil, err
	}
	return &station, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB) ([]stationdomain.Station, error) {
	var stations []stationdomain.Station
	err := db.WithContext(ctx).Order("name ASC").Find(&stations).Error
	return stations, err
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, station *stationdomain.Station) error {
	return db.WithContext(ctx).Create(station).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, station *stationdomain.Station) error {
	return db.WithContext(ctx).Save(station).Error
}

func (r *repository) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status stationdomain.Status) error {
	res := db.WithContext(ctx).Model(&stationdomain.Station{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return stationdomain.ErrStationNotFound
	}
	return nil
}
