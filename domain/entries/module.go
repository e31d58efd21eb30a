package entries

import (
	"go.uber.org/fx"

	"github.com/quillcms/quill/domain/relations"
)

// Module provides entries domain dependencies, including the entry store
// consumed by the relations engine.
var Module = fx.Module("entries",
	fx.Provide(
		fx.Annotate(NewRepository, fx.As(new(relations.EntryStore)), fx.As(fx.Self())),
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
