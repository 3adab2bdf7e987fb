package presence

import (
	"go.uber.org/fx"

	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
	"github.com/playdenlabs/playden/internal/presence/service"
)

var Module = fx.Module("presence",
	fx.Provide(service.NewRedisTracker),
	fx.Provide(func(t *service.RedisTracker) presencedomain.Tracker { return t }),
	fx.Provide(func(t *service.RedisTracker) presencedomain.CooldownSetter { return t }),
	fx.Provide(func() presencedomain.Observer { return service.NoopObserver{} }),
	fx.Provide(service.NewController),
	fx.Provide(service.NewWatcher),
)
