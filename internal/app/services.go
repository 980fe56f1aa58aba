package app

import (
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
	"github.com/meshvault/meshvault-backend/internal/services"
)

type Services struct {
	Ingest   services.IngestService
	Metadata services.MetadataRepo
	Upload   services.UploadService
	Render   services.RenderService
	Delete   services.DeleteService
	List     services.ListService

	RenderWorker *services.RenderWorker
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) Services {
	log.Info("Wiring services...")

	ingest := services.NewIngestService(log)
	metadata := services.NewMetadataRepo(log, clients.GcpBucket)
	renderSvc := services.NewRenderService(log, clients.GcpBucket, metadata, clients.Renderer, cfg.ViewerBaseURL)
	worker := services.NewRenderWorker(log, renderSvc, cfg.RenderQueueSize, cfg.RenderSessionTTL)
	upload := services.NewUploadService(log, clients.GcpBucket, ingest, metadata, worker)
	deleteSvc := services.NewDeleteService(log, clients.GcpBucket, metadata)
	list := services.NewListService(log, clients.GcpBucket, metadata)

	return Services{
		Ingest:       ingest,
		Metadata:     metadata,
		Upload:       upload,
		Render:       renderSvc,
		Delete:       deleteSvc,
		List:         list,
		RenderWorker: worker,
	}
}
