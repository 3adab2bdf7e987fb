// Package domain defines the presence event contract and the per-station
// tracking state consumed by the lifecycle controller.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type State string

const (
	StateUp      State = "up"
	StateDown    State = "down"
	StateUnknown State = "unknown"
)

// Event is one observation of a station device's network presence.
// Delivery is at-least-once; the controller's edge triggering absorbs
// duplicates.
type Event struct {
	StationID  snowflake.ID `json:"station_id"`
	MAC        string       `json:"mac,omitempty"`
	State      State        `json:"state"`
	ObservedAt time.Time    `json:"observed_at"`
}

// Reading is a raw observation from the presence source, keyed by device
// MAC; the watcher resolves it to a station.
type Reading struct {
	MAC string
	Up  bool
}

// Observer is the external presence source boundary. Implementations poll
// whatever mechanism detects the devices (ARP scans, hotspot leases, pings).
type Observer interface {
	Observe(ctx context.Context) ([]Reading, error)
}

// CooldownSetter suppresses auto-start for a station after a manual session
// end. The session state machine calls it; the controller reads it back.
type CooldownSetter interface {
	SetCooldown(ctx context.Context, stationID snowflake.ID, d time.Duration) error
}

// Tracker is the durable per-station presence state: the last observed
// state for edge triggering, plus the manual-end cooldown window.
type Tracker interface {
	CooldownSetter

	LastState(ctx context.Context, stationID snowflake.ID) (State, error)
	SetLastState(ctx context.Context, stationID snowflake.ID, state State) error
	CooldownActive(ctx context.Context, stationID snowflake.ID) (bool, error)
	ClearCooldown(ctx context.Context, stationID snowflake.ID) error
}

// Controller drives the session state machine from presence events.
type Controller interface {
	Handle(ctx context.Context, event Event) error
}
