package service

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
)

// appendEvent writes an outbox row in the same transaction as the billing
// transition. Delivery is the dispatcher's problem.
func (s *service) appendEvent(ctx context.Context, tx *gorm.DB, session *sessiondomain.Session, eventType notifydomain.EventType, payload map[string]any) error {
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
