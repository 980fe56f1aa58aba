package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/http/response"
	pkgerrors "github.com/meshvault/meshvault-backend/internal/pkg/errors"
	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
	"github.com/meshvault/meshvault-backend/internal/services"
)

const maxUploadBytes = 128 << 20

type ModelHandler struct {
	log     *logger.Logger
	upload  services.UploadService
	render  services.RenderService
	deleter services.DeleteService
	lister  services.ListService
}

func NewModelHandler(
	log *logger.Logger,
	upload services.UploadService,
	render services.RenderService,
	deleter services.DeleteService,
	lister services.ListService,
) *ModelHandler {
	return &ModelHandler{
		log:     log.With("handler", "ModelHandler"),
		upload:  upload,
		render:  render,
		deleter: deleter,
		lister:  lister,
	}
}

// POST /api/models/upload
func (h *ModelHandler) UploadModel(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	form := c.Request.MultipartForm

	name := ""
	if v := form.Value["name"]; len(v) > 0 {
		name = strings.TrimSpace(v[0])
	}

	fileHeaders := form.File["model"]
	if len(fileHeaders) == 0 {
		fileHeaders = form.File["file"]
	}
	if len(fileHeaders) == 0 {
		response.RespondError(c, http.StatusBadRequest, "missing_model_file",
			fmt.Errorf("%w: archive file is required", pkgerrors.ErrInvalidArgument))
		return
	}

	f, err := fileHeaders[0].Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_model_file", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_model_file", err)
		return
	}

	res, err := h.upload.Upload(c.Request.Context(), name, raw)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "validation_failed", err)
			return
		}
		h.log.Error("upload failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	response.RespondOK(c, res)
}

type renderRequest struct {
	ModelID string `json:"modelId"`
}

// POST /api/models/render
//
// Internal trigger surface. The upload path enqueues render work instead of
// calling this; the endpoint exists so a render can be driven directly.
func (h *ModelHandler) RenderModel(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ModelID) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_model_id",
			fmt.Errorf("%w: modelId is required", pkgerrors.ErrInvalidArgument))
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(req.ModelID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_model_id", err)
		return
	}

	asset, err := h.render.RenderThumbnail(c.Request.Context(), id)
	if err != nil {
		h.log.Error("render failed", "asset_id", id.String(), "error", err)
		response.RespondError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":           asset.ID,
		"status":       asset.Status,
		"thumbnailUrl": asset.ThumbnailURL,
	})
}

type deleteRequest struct {
	ID string `json:"id"`
}

// POST /api/models/delete
func (h *ModelHandler) DeleteModel(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_id",
			fmt.Errorf("%w: id is required", pkgerrors.ErrInvalidArgument))
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(req.ID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	res, err := h.deleter.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "model_not_found", err)
			return
		}
		h.log.Error("delete failed", "asset_id", id.String(), "error", err)
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/models
func (h *ModelHandler) ListModels(c *gin.Context) {
	assets, err := h.lister.ListAssets(c.Request.Context())
	if err != nil {
		h.log.Error("list failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"models": assets})
}
