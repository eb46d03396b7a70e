package handler

import (
	"errors"
	"net/http"
	"strings"

	"tabi-backend/internal/httputil"
	"tabi-backend/internal/model"
	"tabi-backend/internal/service"
	"tabi-backend/internal/transport/http/middleware"
)

// MediaHandler serves standalone image uploads. Clients upload first, then
// reference the returned URL from an image block.
type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadImage accepts a multipart image and stores it in object storage
// POST /upload-image
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := int64(model.MaxImageSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "Image file is required")
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadImage(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			httputil.WriteBadGateway(w, "Failed to upload image")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, upload)
}
