package providers

import (
	"github.com/openhaus/atrium/internal/providers/email"
	"github.com/openhaus/atrium/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
