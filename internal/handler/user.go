package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tabi-backend/internal/httputil"
	"tabi-backend/internal/model"
	"tabi-backend/internal/service"
	"tabi-backend/internal/transport/http/middleware"
)

// UserHandler serves public profiles and the caller's own profile edits.
type UserHandler struct {
	userService  *service.UserService
	mediaService *service.MediaService
}

func NewUserHandler(userService *service.UserService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		mediaService: mediaService,
	}
}

// List returns user summaries
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.userService.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// GetByUsername returns a public profile
// GET /users/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile mutates the caller's profile
// PATCH /me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UploadAvatar replaces the caller's avatar
// POST /me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar file is required")
		return
	}
	defer file.Close()

	old, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			httputil.WriteBadGateway(w, "Failed to upload avatar")
		}
		return
	}

	if err := h.userService.UpdateAvatar(r.Context(), userID, upload.URL, upload.Key); err != nil {
		httputil.WriteInternalError(w, "Failed to update avatar")
		return
	}

	// Old avatar cleanup is best effort.
	if old.AvatarKey != nil && *old.AvatarKey != upload.Key {
		if err := h.mediaService.DeleteObject(r.Context(), *old.AvatarKey); err != nil {
			log.Printf("failed to delete old avatar %q: %v", *old.AvatarKey, err)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, upload)
}
