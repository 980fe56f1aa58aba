package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/meshvault/meshvault-backend/internal/pkg/errors"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return l
}

const fakeURLPrefix = "https://storage.test/"

// fakeBucket is an in-memory BucketService double. Per-key failures are
// injected through the err maps.
type fakeBucket struct {
	mu             sync.Mutex
	objects        map[string][]byte
	contentTypes   map[string]string
	putErr         map[string]error
	getErr         map[string]error
	deleteErr      map[string]error
	listErr        error
	deletedBatches [][]string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
		putErr:       map[string]error{},
		getErr:       map[string]error{},
		deleteErr:    map[string]error{},
	}
}

func (f *fakeBucket) UploadObject(_ context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.putErr[key]; err != nil {
		return "", err
	}
	f.objects[key] = append([]byte(nil), data...)
	f.contentTypes[key] = contentType
	return fakeURLPrefix + key, nil
}

func (f *fakeBucket) DownloadObject(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (f *fakeBucket) DeleteObjects(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedBatches = append(f.deletedBatches, append([]string(nil), keys...))
	var errs []string
	for _, key := range keys {
		if err := f.deleteErr[key]; err != nil {
			errs = append(errs, err.Error())
			continue
		}
		// Deleting an absent key is not an error.
		delete(f.objects, key)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func (f *fakeBucket) ListKeys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []string{}
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeBucket) PublicURL(key string) string {
	return fakeURLPrefix + key
}

func (f *fakeBucket) ObjectKey(url string) string {
	if strings.HasPrefix(url, fakeURLPrefix) {
		return strings.TrimPrefix(url, fakeURLPrefix)
	}
	return ""
}

func (f *fakeBucket) objectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeBucket) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// fakeDispatcher records fire-and-forget render handoffs.
type fakeDispatcher struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	full bool
}

func (d *fakeDispatcher) Enqueue(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.full {
		return false
	}
	d.ids = append(d.ids, id)
	return true
}

// fakeRenderer returns canned capture bytes or a canned error.
type fakeRenderer struct {
	png  []byte
	err  error
	urls []string
}

func (r *fakeRenderer) Render(_ context.Context, viewerURL string) ([]byte, error) {
	r.urls = append(r.urls, viewerURL)
	if r.err != nil {
		return nil, r.err
	}
	return r.png, nil
}

type zipEntry struct {
	name string
	data []byte
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("create zip entry %q: %v", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("write zip entry %q: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
