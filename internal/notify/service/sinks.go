package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/playdenlabs/playden/internal/config"
	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
)

// LogSink records every event in the service log. Always on; doubles as the
// delivery trail when no external sink is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("notify.log")}
}

func (s *LogSink) Notify(_ context.Context, event notifydomain.SessionEvent) error {
	s.log.Info("session event",
		zap.String("event_type", string(event.EventType)),
		zap.String("session_id", event.SessionID.String()),
		zap.String("station_id", event.StationID.String()))
	return nil
}

// WebhookSink POSTs events to the configured endpoint, typically the screen
// controller that shows timer warnings on the station's TV.
type WebhookSink struct {
	log    *zap.Logger
	client *http.Client
}

func NewWebhookSink(log *zap.Logger) *WebhookSink {
	return &WebhookSink{
		log:    log.Named("notify.webhook"),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *WebhookSink) Notify(ctx context.Context, event notifydomain.SessionEvent) error {
	cfg := config.Current()
	if cfg == nil || cfg.Notify.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Notify.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
