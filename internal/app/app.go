package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	apphttp "github.com/meshvault/meshvault-backend/internal/http"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Services Services
	Router   *gin.Engine
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	serviceset := wireServices(log, cfg, clientset)
	handlerset := wireHandlers(log, serviceset)

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Log:           log,
		HealthHandler: handlerset.Health,
		ModelHandler:  handlerset.Model,
	})

	return &App{
		Log:      log,
		Cfg:      cfg,
		Clients:  clientset,
		Services: serviceset,
		Router:   router,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.RenderWorker != nil {
		a.Services.RenderWorker.Start(ctx, a.Cfg.RenderConcurrency)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
