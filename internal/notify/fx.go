package notify

import (
	"go.uber.org/fx"

	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
	"github.com/playdenlabs/playden/internal/notify/service"
)

var Module = fx.Module("notify",
	fx.Provide(
		fx.Annotate(service.NewLogSink, fx.As(new(notifydomain.Notifier)), fx.ResultTags(`group:"notifiers"`)),
		fx.Annotate(service.NewWebhookSink, fx.As(new(notifydomain.Notifier)), fx.ResultTags(`group:"notifiers"`)),
		service.NewDispatcher,
	),
)
