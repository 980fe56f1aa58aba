package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/meshvault/meshvault-backend/internal/http/handlers"
	httpMW "github.com/meshvault/meshvault-backend/internal/http/middleware"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log           *logger.Logger
	HealthHandler *httpH.HealthHandler
	ModelHandler  *httpH.ModelHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.ModelHandler != nil {
			api.POST("/models/upload", cfg.ModelHandler.UploadModel)
			api.POST("/models/render", cfg.ModelHandler.RenderModel)
			api.POST("/models/delete", cfg.ModelHandler.DeleteModel)
			api.GET("/models", cfg.ModelHandler.ListModels)
		}
	}

	return r
}
