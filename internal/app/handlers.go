package app

import (
	httpH "github.com/meshvault/meshvault-backend/internal/http/handlers"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Model  *httpH.ModelHandler
}

func wireHandlers(log *logger.Logger, svcs Services) Handlers {
	log.Info("Wiring handlers...")

	return Handlers{
		Health: httpH.NewHealthHandler(),
		Model:  httpH.NewModelHandler(log, svcs.Upload, svcs.Render, svcs.Delete, svcs.List),
	}
}
