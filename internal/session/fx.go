package session

import (
	"go.uber.org/fx"

	"github.com/playdenlabs/playden/internal/session/repository"
	"github.com/playdenlabs/playden/internal/session/service"
)

var Module = fx.Module("session",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
