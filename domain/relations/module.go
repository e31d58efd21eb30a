package relations

import "go.uber.org/fx"

// Module provides relations domain dependencies
var Module = fx.Module("relations",
	fx.Provide(
		fx.Annotate(NewRepository, fx.As(new(Store))),
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
