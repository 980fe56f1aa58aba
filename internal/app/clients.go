package app

import (
	"fmt"

	"github.com/meshvault/meshvault-backend/internal/clients/gcp"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
	"github.com/meshvault/meshvault-backend/internal/render"
)

type Clients struct {
	GcpBucket gcp.BucketService
	Renderer  render.Renderer
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewBucketService(log, gcp.BucketConfig{
		Name:      cfg.BucketName,
		CDNDomain: cfg.CDNDomain,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	renderer := render.NewChromeRenderer(log, render.ChromeConfig{
		CDPURL:      cfg.ChromeCDPURL,
		ChromePath:  cfg.ChromePath,
		Headless:    cfg.ChromeHeadless,
		WaitCeiling: cfg.RenderWaitCeiling,
	})

	return Clients{
		GcpBucket: bucket,
		Renderer:  renderer,
	}, nil
}
