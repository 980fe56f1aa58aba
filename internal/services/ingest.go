package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	pkgerrors "github.com/meshvault/meshvault-backend/internal/pkg/errors"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

// modelExtensions is the fixed set of recognized model file extensions.
var modelExtensions = []string{".obj", ".glb", ".gltf", ".fbx", ".stl"}

const textureExtension = ".png"

// Bundle is the extracted content of an uploaded archive: the model file,
// its texture, and the resolved model extension tag (without the dot).
type Bundle struct {
	ModelData   []byte
	TextureData []byte
	ModelType   string
}

type IngestService interface {
	ExtractBundle(raw []byte, name string) (*Bundle, error)
}

type ingestService struct {
	log *logger.Logger
}

func NewIngestService(log *logger.Logger) IngestService {
	return &ingestService{log: log.With("service", "IngestService")}
}

// ExtractBundle validates the uploaded archive and locates the model and
// texture entries. Selection is strictly order-of-enumeration: the FIRST
// entry with a recognized model extension wins, likewise for the texture.
// Clients depend on first-match semantics, so this must not be replaced
// with content-based disambiguation.
func (s *ingestService) ExtractBundle(raw []byte, name string) (*Bundle, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: asset name is required", pkgerrors.ErrInvalidArgument)
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not a valid zip archive: %v", pkgerrors.ErrInvalidArgument, err)
	}

	var modelData, textureData []byte
	var modelType string

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entryName := strings.ToLower(path.Base(f.Name))

		if modelData == nil {
			if ext := matchModelExtension(entryName); ext != "" {
				data, err := readZipEntry(f)
				if err != nil {
					return nil, fmt.Errorf("%w: cannot read archive entry %q: %v", pkgerrors.ErrInvalidArgument, f.Name, err)
				}
				modelData = data
				modelType = strings.TrimPrefix(ext, ".")
				continue
			}
		}
		if textureData == nil && strings.HasSuffix(entryName, textureExtension) {
			data, err := readZipEntry(f)
			if err != nil {
				return nil, fmt.Errorf("%w: cannot read archive entry %q: %v", pkgerrors.ErrInvalidArgument, f.Name, err)
			}
			textureData = data
		}
	}

	if modelData == nil {
		return nil, fmt.Errorf("%w: archive does not contain a model file", pkgerrors.ErrInvalidArgument)
	}
	if textureData == nil {
		return nil, fmt.Errorf("%w: archive does not contain a texture file", pkgerrors.ErrInvalidArgument)
	}

	return &Bundle{
		ModelData:   modelData,
		TextureData: textureData,
		ModelType:   modelType,
	}, nil
}

func matchModelExtension(entryName string) string {
	for _, ext := range modelExtensions {
		if strings.HasSuffix(entryName, ext) {
			return ext
		}
	}
	return ""
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
