package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type AssetStatus string

const (
	// StatusUploaded is set when both blobs and the metadata record are stored.
	StatusUploaded AssetStatus = "Uploaded"
	// StatusReady is set after a thumbnail has been rendered and stored.
	StatusReady AssetStatus = "Ready"
	// StatusError is set when the render pipeline failed. Terminal, never retried.
	StatusError AssetStatus = "Error"
)

// Asset is the per-model metadata record. It is the sole source of truth for
// an asset's blob locations: one record is stored as JSON at MetadataKey(id)
// and doubles as status tracker, blob directory and delete index.
type Asset struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	ModelURL     string      `json:"modelUrl"`
	TextureURL   string      `json:"textureUrl"`
	ModelType    string      `json:"modelType"`
	Status       AssetStatus `json:"status"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	Timestamp    int64       `json:"timestamp"`
	// Version is a monotonic write counter checked before every overwrite,
	// so a concurrent status update cannot be silently lost.
	Version int64 `json:"version"`
}

// TransitionTo enforces the status machine: Uploaded -> {Ready, Error},
// both terminal.
func (a *Asset) TransitionTo(next AssetStatus) error {
	if a.Status != StatusUploaded {
		return fmt.Errorf("asset %s: illegal status transition %s -> %s", a.ID, a.Status, next)
	}
	if next != StatusReady && next != StatusError {
		return fmt.Errorf("asset %s: illegal status transition %s -> %s", a.ID, a.Status, next)
	}
	a.Status = next
	return nil
}
