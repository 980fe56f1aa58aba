package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/domain"
	pkgerrors "github.com/meshvault/meshvault-backend/internal/pkg/errors"
)

func newUploadFixture(t *testing.T) (*fakeBucket, *fakeDispatcher, UploadService, MetadataRepo) {
	t.Helper()
	log := testLogger(t)
	bucket := newFakeBucket()
	metadata := NewMetadataRepo(log, bucket)
	dispatcher := &fakeDispatcher{}
	svc := NewUploadService(log, bucket, NewIngestService(log), metadata, dispatcher)
	return bucket, dispatcher, svc, metadata
}

func chairArchive(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, []zipEntry{
		{"mesh.obj", []byte("v 0 0 0\n")},
		{"skin.png", []byte("png-bytes")},
	})
}

func TestUploadStoresBlobsAndMetadata(t *testing.T) {
	bucket, dispatcher, svc, metadata := newUploadFixture(t)

	res, err := svc.Upload(context.Background(), "Chair", chairArchive(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.ID == uuid.Nil {
		t.Fatal("expected a fresh asset id")
	}
	if res.Name != "Chair" {
		t.Fatalf("name: want=Chair got=%q", res.Name)
	}

	if !bucket.has(domain.ModelKey(res.ID, "obj")) {
		t.Fatal("model blob missing")
	}
	if !bucket.has(domain.TextureKey(res.ID)) {
		t.Fatal("texture blob missing")
	}

	rec, err := metadata.Load(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("Load metadata: %v", err)
	}
	if rec.Status != domain.StatusUploaded {
		t.Fatalf("status: want=%s got=%s", domain.StatusUploaded, rec.Status)
	}
	if rec.ModelURL == "" || rec.TextureURL == "" {
		t.Fatalf("blob urls not populated: %+v", rec)
	}
	if rec.ModelType != "obj" {
		t.Fatalf("model type: want=obj got=%q", rec.ModelType)
	}
	if rec.Timestamp == 0 {
		t.Fatal("timestamp not set")
	}
	if rec.Version != 1 {
		t.Fatalf("version: want=1 got=%d", rec.Version)
	}

	if len(dispatcher.ids) != 1 || dispatcher.ids[0] != res.ID {
		t.Fatalf("render handoff: want=[%s] got=%v", res.ID, dispatcher.ids)
	}
}

func TestUploadValidationFailsBeforeAnyWrite(t *testing.T) {
	cases := []struct {
		name      string
		assetName string
		archive   func(t *testing.T) []byte
	}{
		{"empty_name", "", chairArchive},
		{"empty_archive", "Chair", func(t *testing.T) []byte { return nil }},
		{"no_model_entry", "Chair", func(t *testing.T) []byte {
			return buildZip(t, []zipEntry{{"skin.png", []byte("png")}})
		}},
		{"no_texture_entry", "Chair", func(t *testing.T) []byte {
			return buildZip(t, []zipEntry{{"mesh.obj", []byte("obj")}})
		}},
		{"not_an_archive", "Chair", func(t *testing.T) []byte { return []byte("junk") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bucket, dispatcher, svc, _ := newUploadFixture(t)
			_, err := svc.Upload(context.Background(), tc.assetName, tc.archive(t))
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if n := bucket.objectCount(); n != 0 {
				t.Fatalf("expected no blob writes, found %d objects", n)
			}
			if len(dispatcher.ids) != 0 {
				t.Fatal("render handoff fired on validation failure")
			}
		})
	}
}

func TestUploadBlobFailureSurfacesWithoutDispatch(t *testing.T) {
	log := testLogger(t)
	bucket := newFakeBucket()
	failing := &failingPutBucket{fakeBucket: bucket, failSuffix: "/texture.png"}
	dispatcher := &fakeDispatcher{}
	svc := NewUploadService(log, failing, NewIngestService(log), NewMetadataRepo(log, failing), dispatcher)

	_, err := svc.Upload(context.Background(), "Chair", chairArchive(t))
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("store failure must not read as validation: %v", err)
	}
	if len(dispatcher.ids) != 0 {
		t.Fatal("render handoff fired after failed upload")
	}
	// The model blob was already stored: an accepted, undetected leak.
	if bucket.objectCount() != 1 {
		t.Fatalf("expected exactly the orphaned model blob, got %d objects", bucket.objectCount())
	}
}

func TestUploadResponseUnaffectedByFullRenderQueue(t *testing.T) {
	bucket, dispatcher, _, _ := newUploadFixture(t)
	dispatcher.full = true
	log := testLogger(t)
	svc := NewUploadService(log, bucket, NewIngestService(log), NewMetadataRepo(log, bucket), dispatcher)

	res, err := svc.Upload(context.Background(), "Chair", chairArchive(t))
	if err != nil {
		t.Fatalf("Upload must succeed when dispatch is dropped: %v", err)
	}
	if res.ID == uuid.Nil {
		t.Fatal("expected asset id in response")
	}
}

// failingPutBucket fails uploads for keys ending with failSuffix.
type failingPutBucket struct {
	*fakeBucket
	failSuffix string
}

func (f *failingPutBucket) UploadObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.failSuffix != "" && strings.HasSuffix(key, f.failSuffix) {
		return "", fmt.Errorf("simulated store outage for %q", key)
	}
	return f.fakeBucket.UploadObject(ctx, key, data, contentType)
}
