package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/clients/gcp"
	"github.com/meshvault/meshvault-backend/internal/domain"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
	"github.com/meshvault/meshvault-backend/internal/render"
)

type RenderService interface {
	RenderThumbnail(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
}

type renderService struct {
	log           *logger.Logger
	bucket        gcp.BucketService
	metadata      MetadataRepo
	renderer      render.Renderer
	viewerBaseURL string
}

func NewRenderService(
	log *logger.Logger,
	bucket gcp.BucketService,
	metadata MetadataRepo,
	renderer render.Renderer,
	viewerBaseURL string,
) RenderService {
	return &renderService{
		log:           log.With("service", "RenderService"),
		bucket:        bucket,
		metadata:      metadata,
		renderer:      renderer,
		viewerBaseURL: strings.TrimRight(viewerBaseURL, "/"),
	}
}

// RenderThumbnail drives the headless renderer for one asset and moves its
// record to a terminal status. A missing record is a precondition violation
// and fails hard. Any failure after the record has been loaded degrades the
// asset to Error; if persisting Error itself fails, that is escalated as a
// log-only failure and never retried.
func (s *renderService) RenderThumbnail(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	rec, err := s.metadata.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load metadata for asset %s: %w", id, err)
	}

	png, err := s.renderer.Render(ctx, s.viewerURL(id))
	if err != nil {
		return s.degrade(ctx, rec, fmt.Errorf("render asset %s: %w", id, err))
	}

	thumb, err := composeThumbnail(png)
	if err != nil {
		return s.degrade(ctx, rec, fmt.Errorf("compose thumbnail for asset %s: %w", id, err))
	}

	thumbURL, err := s.bucket.UploadObject(ctx, domain.ThumbnailKey(id), thumb, "image/png")
	if err != nil {
		return s.degrade(ctx, rec, fmt.Errorf("store thumbnail for asset %s: %w", id, err))
	}

	// Re-load for the freshest version token before the full overwrite.
	current, err := s.metadata.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload metadata for asset %s: %w", id, err)
	}
	if err := current.TransitionTo(domain.StatusReady); err != nil {
		// Already terminal; another writer finished first. Leave it alone.
		return nil, err
	}
	current.ThumbnailURL = thumbURL
	if err := s.metadata.Update(ctx, current); err != nil {
		return s.degrade(ctx, rec, fmt.Errorf("persist Ready status for asset %s: %w", id, err))
	}
	return current, nil
}

// degrade marks the in-memory record Error and persists it best-effort.
func (s *renderService) degrade(ctx context.Context, rec *domain.Asset, cause error) (*domain.Asset, error) {
	s.log.Warn("thumbnail render failed", "asset_id", rec.ID.String(), "error", cause)
	if terr := rec.TransitionTo(domain.StatusError); terr != nil {
		s.log.Error("asset already terminal, not degrading", "asset_id", rec.ID.String(), "error", terr)
		return rec, cause
	}
	if perr := s.metadata.Update(ctx, rec); perr != nil {
		// Failure while recording a failure: log-only, not retriable.
		s.log.Error("failed to persist Error status",
			"asset_id", rec.ID.String(),
			"error", perr,
			"cause", cause,
		)
	}
	return rec, cause
}

func (s *renderService) viewerURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/%s", s.viewerBaseURL, id)
}
