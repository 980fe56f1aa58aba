package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/clients/gcp"
	"github.com/meshvault/meshvault-backend/internal/domain"
	pkgerrors "github.com/meshvault/meshvault-backend/internal/pkg/errors"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

// MetadataRepo persists the per-asset metadata record at its fixed key.
// The store has no partial-update primitive, so every save is a full
// overwrite of the serialized record.
type MetadataRepo interface {
	Create(ctx context.Context, asset *domain.Asset) error
	Load(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	// Update overwrites the stored record after checking that its version
	// still matches the version the caller loaded. A mismatch means another
	// writer got there first and surfaces as ErrVersionConflict instead of
	// silently losing that update.
	Update(ctx context.Context, asset *domain.Asset) error
}

type metadataRepo struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewMetadataRepo(log *logger.Logger, bucket gcp.BucketService) MetadataRepo {
	return &metadataRepo{
		log:    log.With("service", "MetadataRepo"),
		bucket: bucket,
	}
}

func (r *metadataRepo) Create(ctx context.Context, asset *domain.Asset) error {
	asset.Version = 1
	return r.put(ctx, asset)
}

func (r *metadataRepo) Load(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	data, err := r.bucket.DownloadObject(ctx, domain.MetadataKey(id))
	if err != nil {
		return nil, err
	}
	var asset domain.Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("unmarshal metadata for asset %s: %w", id, err)
	}
	return &asset, nil
}

func (r *metadataRepo) Update(ctx context.Context, asset *domain.Asset) error {
	current, err := r.Load(ctx, asset.ID)
	if err != nil {
		return fmt.Errorf("load current metadata for asset %s: %w", asset.ID, err)
	}
	if current.Version != asset.Version {
		return fmt.Errorf("asset %s: stored version %d, loaded version %d: %w",
			asset.ID, current.Version, asset.Version, pkgerrors.ErrVersionConflict)
	}
	asset.Version++
	if err := r.put(ctx, asset); err != nil {
		asset.Version--
		return err
	}
	return nil
}

func (r *metadataRepo) put(ctx context.Context, asset *domain.Asset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("marshal metadata for asset %s: %w", asset.ID, err)
	}
	if _, err := r.bucket.UploadObject(ctx, domain.MetadataKey(asset.ID), data, "application/json"); err != nil {
		return fmt.Errorf("store metadata for asset %s: %w", asset.ID, err)
	}
	return nil
}
