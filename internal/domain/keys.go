package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix is the root of the fixed per-asset key layout:
//
//	models/{id}/model.{ext}
//	models/{id}/texture.png
//	models/{id}/thumbnail.png
//	models/{id}/metadata.json
//
// The layout is a compatibility contract and must not change. The record's
// URL fields stay authoritative; these helpers are the derivable fallback.
const KeyPrefix = "models/"

const MetadataFilename = "metadata.json"

func MetadataKey(id uuid.UUID) string {
	return fmt.Sprintf("%s%s/%s", KeyPrefix, id, MetadataFilename)
}

func ModelKey(id uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%s/model.%s", KeyPrefix, id, strings.TrimPrefix(ext, "."))
}

func TextureKey(id uuid.UUID) string {
	return fmt.Sprintf("%s%s/texture.png", KeyPrefix, id)
}

func ThumbnailKey(id uuid.UUID) string {
	return fmt.Sprintf("%s%s/thumbnail.png", KeyPrefix, id)
}
