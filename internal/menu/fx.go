package menu

import (
	"go.uber.org/fx"

	"github.com/playdenlabs/playden/internal/menu/repository"
)

var Module = fx.Module("menu",
	fx.Provide(repository.NewRepository),
)
