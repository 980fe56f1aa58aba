package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/clients/gcp"
	"github.com/meshvault/meshvault-backend/internal/domain"
	pkgerrors "github.com/meshvault/meshvault-backend/internal/pkg/errors"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

// RenderDispatcher hands an asset id to the background render pipeline.
// The send is one-way: no result channel, no retry, and a full queue must
// never affect the upload response.
type RenderDispatcher interface {
	Enqueue(id uuid.UUID) bool
}

type UploadResult struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
}

type UploadService interface {
	Upload(ctx context.Context, name string, archive []byte) (*UploadResult, error)
}

type uploadService struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	ingest   IngestService
	metadata MetadataRepo
	renders  RenderDispatcher
}

func NewUploadService(
	log *logger.Logger,
	bucket gcp.BucketService,
	ingest IngestService,
	metadata MetadataRepo,
	renders RenderDispatcher,
) UploadService {
	return &uploadService{
		log:      log.With("service", "UploadService"),
		bucket:   bucket,
		ingest:   ingest,
		metadata: metadata,
		renders:  renders,
	}
}

// Upload runs the ingest sequence: validate, extract, store both blobs, then
// create the metadata record. The asset is discoverable and deletable as soon
// as the record is stored; the thumbnail render is handed off asynchronously
// and its outcome is never reflected in the response. A failure between the
// blob puts and the record put leaves orphaned blobs behind; that leak is
// accepted and not remediated here.
func (s *uploadService) Upload(ctx context.Context, name string, archive []byte) (*UploadResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: asset name is required", pkgerrors.ErrInvalidArgument)
	}
	if len(archive) == 0 {
		return nil, fmt.Errorf("%w: archive file is required", pkgerrors.ErrInvalidArgument)
	}

	bundle, err := s.ingest.ExtractBundle(archive, name)
	if err != nil {
		return nil, err
	}

	// Fresh per upload; collisions are treated as negligible and not checked.
	id := uuid.New()

	modelURL, err := s.bucket.UploadObject(ctx, domain.ModelKey(id, bundle.ModelType), bundle.ModelData, "")
	if err != nil {
		return nil, fmt.Errorf("store model blob for asset %s: %w", id, err)
	}
	textureURL, err := s.bucket.UploadObject(ctx, domain.TextureKey(id), bundle.TextureData, "image/png")
	if err != nil {
		return nil, fmt.Errorf("store texture blob for asset %s: %w", id, err)
	}

	asset := &domain.Asset{
		ID:         id,
		Name:       strings.TrimSpace(name),
		ModelURL:   modelURL,
		TextureURL: textureURL,
		ModelType:  bundle.ModelType,
		Status:     domain.StatusUploaded,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := s.metadata.Create(ctx, asset); err != nil {
		return nil, err
	}

	if !s.renders.Enqueue(id) {
		s.log.Warn("render queue full, thumbnail render dropped", "asset_id", id.String())
	}

	return &UploadResult{
		ID:      id,
		Name:    asset.Name,
		Message: "upload accepted, thumbnail render pending",
	}, nil
}
