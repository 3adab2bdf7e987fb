package station

import (
	"go.uber.org/fx"

	"github.com/playdenlabs/playden/internal/station/repository"
	"github.com/playdenlabs/playden/internal/station/service"
)

var Module = fx.Module("station",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
