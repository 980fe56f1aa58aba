package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/clients/gcp"
	"github.com/meshvault/meshvault-backend/internal/domain"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

type DeleteResult struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

type DeleteService interface {
	Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
}

type deleteService struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	metadata MetadataRepo
}

func NewDeleteService(log *logger.Logger, bucket gcp.BucketService, metadata MetadataRepo) DeleteService {
	return &deleteService{
		log:      log.With("service", "DeleteService"),
		bucket:   bucket,
		metadata: metadata,
	}
}

// Delete cascades over every blob the metadata record references. The record
// is the authoritative directory of blob locations; the fixed key convention
// fills in any missing field. The batch has no cross-key atomicity: a partial
// failure is reported as an aggregate error, without rollback or retry.
func (s *deleteService) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	rec, err := s.metadata.Load(ctx, id)
	if err != nil {
		// Propagates ErrNotFound: an absent record means already deleted.
		return nil, err
	}

	keys := s.cascadeKeys(rec)
	if err := s.bucket.DeleteObjects(ctx, keys); err != nil {
		return nil, fmt.Errorf("cascade delete for asset %s: %w", id, err)
	}

	s.log.Info("Asset deleted", "asset_id", id.String(), "keys", len(keys))
	return &DeleteResult{ID: id, Message: "asset and blobs deleted"}, nil
}

func (s *deleteService) cascadeKeys(rec *domain.Asset) []string {
	keys := []string{domain.MetadataKey(rec.ID)}

	if k := s.bucket.ObjectKey(rec.ModelURL); k != "" {
		keys = append(keys, k)
	} else if rec.ModelType != "" {
		keys = append(keys, domain.ModelKey(rec.ID, rec.ModelType))
	}

	if k := s.bucket.ObjectKey(rec.TextureURL); k != "" {
		keys = append(keys, k)
	} else {
		keys = append(keys, domain.TextureKey(rec.ID))
	}

	// Deleting an absent key is a no-op, so the thumbnail key is always
	// included. This also covers a render finishing after the record was read.
	if k := s.bucket.ObjectKey(rec.ThumbnailURL); k != "" {
		keys = append(keys, k)
	} else {
		keys = append(keys, domain.ThumbnailKey(rec.ID))
	}
	return keys
}
