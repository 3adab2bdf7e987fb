// Package ledger computes billable gaming cost from segment history.
// Everything here is a pure function over immutable snapshots; state
// enforcement (one open segment, no overlaps) belongs to the session
// service.
package ledger

import (
	"time"

	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
)

const msPerMinute = 60_000

// Accrue sums the cost of all segments at the given instant. Open segments
// are priced up to now. Each segment bills independently: its duration
// rounds up to whole minutes, then the rate conversion rounds to the
// nearest piaster, so a mode switch never loses a partial minute.
func Accrue(segments []sessiondomain.Segment, now time.Time) int64 {
	var total int64
	for _, seg := range segments {
		total += SegmentCost(seg, now)
	}
	return total
}

// SegmentCost prices a single segment at the given instant.
func SegmentCost(seg sessiondomain.Segment, now time.Time) int64 {
	end := now
	if seg.EndedAt != nil {
		end = *seg.EndedAt
	}
	elapsed := end.Sub(seg.StartedAt).Milliseconds()
	if elapsed <= 0 {
		return 0
	}
	minutes := ceilDiv(elapsed, msPerMinute)
	return roundDiv(seg.HourlyRate*minutes, 60)
}

// Settle combines gaming cost, orders, extra charges and transferred cost
// into the final bill.
func Settle(s sessiondomain.Session) int64 {
	var gaming int64
	if s.TotalCost != nil {
		gaming = *s.TotalCost
	}
	return gaming + s.OrdersCost + s.ExtraCharges + s.TransferredCost
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// roundDiv divides non-negative integers rounding half up.
func roundDiv(a, b int64) int64 {
	return (a + b/2) / b
}
