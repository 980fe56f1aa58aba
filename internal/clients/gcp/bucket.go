package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	pkgerrors "github.com/meshvault/meshvault-backend/internal/pkg/errors"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

// BucketService is the object-storage collaborator the asset pipeline runs
// against. Every call is independently failable network I/O; there is no
// atomicity across keys.
type BucketService interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DownloadObject(ctx context.Context, key string) ([]byte, error)
	// DeleteObjects removes each key independently. Deleting an absent key is
	// not an error; per-key failures are joined into the returned aggregate.
	DeleteObjects(ctx context.Context, keys []string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
	// ObjectKey is the inverse of PublicURL. It returns "" when the URL does
	// not point into this bucket.
	ObjectKey(url string) string
}

type BucketConfig struct {
	Name      string
	CDNDomain string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	cfg           BucketConfig
}

func NewBucketService(log *logger.Logger, cfg BucketConfig) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("bucket name is empty")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		cfg:           cfg,
	}, nil
}

func (bs *bucketService) UploadObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.cfg.Name).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer for %q: %w", key, err)
	}
	return bs.PublicURL(key), nil
}

func (bs *bucketService) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := bs.storageClient.Bucket(bs.cfg.Name).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open reader for %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return data, nil
}

func (bs *bucketService) DeleteObjects(ctx context.Context, keys []string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var errs []error
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		err := bs.storageClient.Bucket(bs.cfg.Name).Object(key).Delete(ctx)
		if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
			continue
		}
		errs = append(errs, fmt.Errorf("delete %q: %w", key, err))
	}
	return errors.Join(errs...)
}

func (bs *bucketService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	it := bs.storageClient.Bucket(bs.cfg.Name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) PublicURL(key string) string {
	if bs.cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cfg.CDNDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.cfg.Name, key)
}

func (bs *bucketService) ObjectKey(url string) string {
	return objectKeyForBucket(url, bs.cfg)
}

func objectKeyForBucket(url string, cfg BucketConfig) string {
	u := strings.TrimSpace(url)
	if u == "" {
		return ""
	}
	prefixes := []string{
		fmt.Sprintf("https://storage.googleapis.com/%s/", cfg.Name),
	}
	if cfg.CDNDomain != "" {
		prefixes = append(prefixes, fmt.Sprintf("https://%s/", cfg.CDNDomain))
	}
	for _, p := range prefixes {
		if strings.HasPrefix(u, p) {
			return strings.TrimPrefix(u, p)
		}
	}
	return ""
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if s == "" {
		return ""
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".glb"):
		return "model/gltf-binary"
	case strings.HasSuffix(s, ".gltf"):
		return "model/gltf+json"
	case strings.HasSuffix(s, ".obj"):
		return "text/plain"
	case strings.HasSuffix(s, ".stl"):
		return "model/stl"
	default:
		return "application/octet-stream"
	}
}
