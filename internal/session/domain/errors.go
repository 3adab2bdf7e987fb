package domain

import (
	"errors"

	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrOrderNotFound   = errors.New("order_not_found")
	ErrChargeNotFound  = errors.New("charge_not_found")

	ErrSessionEnded    = errors.New("session_ended")
	ErrSessionNotEnded = errors.New("session_not_ended")

	ErrStationBusy    = errors.New("station_has_active_session")
	ErrSameStation    = errors.New("target_is_current_station")
	ErrTransferToSelf = errors.New("transfer_to_self")

	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidAmount   = errors.New("invalid_amount")
)

// Kind is the caller-facing error taxonomy. All domain errors are expected
// and recoverable; nothing here is process-fatal.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindConflict
	KindUnavailable
	KindValidation
)

// Classify maps a domain error onto the taxonomy so callers can decide
// whether to retry, surface, or swallow it.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrChargeNotFound),
		errors.Is(err, stationdomain.ErrStationNotFound),
		errors.Is(err, menudomain.ErrMenuItemNotFound):
		return KindNotFound
	case errors.Is(err, ErrSessionEnded),
		errors.Is(err, ErrSessionNotEnded):
		return KindInvalidState
	case errors.Is(err, ErrStationBusy),
		errors.Is(err, ErrSameStation),
		errors.Is(err, ErrTransferToSelf),
		errors.Is(err, stationdomain.ErrStationMaintenance):
		return KindConflict
	case errors.Is(err, menudomain.ErrMenuItemDisabled):
		return KindUnavailable
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, stationdomain.ErrInvalidMode):
		return KindValidation
	default:
		return KindUnknown
	}
}
