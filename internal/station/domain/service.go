package domain

import "context"

type CreateStationRequest struct {
	Name            string  `json:"name" validate:"required,min=1"`
	HourlyRate      int64   `json:"hourly_rate" validate:"required,gt=0"`
	MultiHourlyRate *int64  `json:"multi_hourly_rate,omitempty"`
	MACAddress      *string `json:"mac_address,omitempty"`
}

type UpdateStationRequest struct {
	ID              string  `json:"-"`
	Name            *string `json:"name,omitempty"`
	HourlyRate      *int64  `json:"hourly_rate,omitempty"`
	MultiHourlyRate *int64  `json:"multi_hourly_rate,omitempty"`
	MACAddress      *string `json:"mac_address,omitempty"`
	Maintenance     *bool   `json:"maintenance,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateStationRequest) (*Station, error)
	Update(ctx context.Context, req UpdateStationRequest) (*Station, error)
	Get(ctx context.Context, id string) (*Station, error)
	List(ctx context.Context) ([]Station, error)
}
