package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/clients/gcp"
	"github.com/meshvault/meshvault-backend/internal/domain"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

type ListService interface {
	ListAssets(ctx context.Context) ([]*domain.Asset, error)
}

type listService struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	metadata MetadataRepo
}

func NewListService(log *logger.Logger, bucket gcp.BucketService, metadata MetadataRepo) ListService {
	return &listService{
		log:      log.With("service", "ListService"),
		bucket:   bucket,
		metadata: metadata,
	}
}

// ListAssets returns every metadata record, strictly sorted by creation
// timestamp descending. Tie order is unspecified. Records that fail to load
// are skipped with a warning.
func (s *listService) ListAssets(ctx context.Context) ([]*domain.Asset, error) {
	keys, err := s.bucket.ListKeys(ctx, domain.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list asset keys: %w", err)
	}

	assets := make([]*domain.Asset, 0, len(keys))
	for _, key := range keys {
		id, ok := metadataKeyID(key)
		if !ok {
			continue
		}
		rec, err := s.metadata.Load(ctx, id)
		if err != nil {
			s.log.Warn("skipping unreadable metadata record", "key", key, "error", err)
			continue
		}
		assets = append(assets, rec)
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Timestamp > assets[j].Timestamp
	})
	return assets, nil
}

func metadataKeyID(key string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(key, domain.KeyPrefix)
	if !ok {
		return uuid.Nil, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != domain.MetadataFilename {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
