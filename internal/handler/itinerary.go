package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tabi-backend/internal/config"
	"tabi-backend/internal/httputil"
	"tabi-backend/internal/model"
	"tabi-backend/internal/service"
)

// ItineraryHandler serves itinerary CRUD, listings, and forks.
type ItineraryHandler struct {
	itineraryService *service.ItineraryService
	userService      *service.UserService
	config           *config.Config
}

func NewItineraryHandler(itineraryService *service.ItineraryService, userService *service.UserService, cfg *config.Config) *ItineraryHandler {
	return &ItineraryHandler{
		itineraryService: itineraryService,
		userService:      userService,
		config:           cfg,
	}
}

// List returns public itineraries with optional tag and text filters
// GET /itineraries?tags=a,b&search=q&limit=20&offset=0
func (h *ItineraryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := model.ListItinerariesRequest{
		Search: strings.TrimSpace(q.Get("search")),
	}
	if rawTags := strings.TrimSpace(q.Get("tags")); rawTags != "" {
		for _, tag := range strings.Split(rawTags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Tags = append(req.Tags, tag)
			}
		}
	}
	req.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Offset, _ = strconv.Atoi(q.Get("offset"))

	itins, err := h.itineraryService.List(r.Context(), &req)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list itineraries")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, itins)
}

// ListByUser returns a user's itineraries
// GET /users/{username}/itineraries
func (h *ItineraryHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
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

	viewer := viewerFromContext(r.Context(), h.config)
	itins, err := h.itineraryService.ListByCreator(r.Context(), user.ID, viewer)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list itineraries")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, itins)
}

// GetBySlug resolves an itinerary by its creator's username and slug
// GET /users/{username}/itineraries/{slug}
func (h *ItineraryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	itinSlug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if username == "" || itinSlug == "" {
		httputil.WriteBadRequest(w, "Username and slug are required")
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

	viewer := viewerFromContext(r.Context(), h.config)
	itin, err := h.itineraryService.GetBySlug(r.Context(), user.ID, itinSlug, viewer)
	if err != nil {
		if errors.Is(err, model.ErrItineraryNotFound) {
			httputil.WriteNotFound(w, "Itinerary not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to get itinerary")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, itin)
}

// Create adds a new itinerary for the caller
// POST /itineraries
func (h *ItineraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.CreateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httputil.WriteBadRequest(w, "Title is required")
		return
	}

	itin, err := h.itineraryService.Create(r.Context(), caller.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidVisibility):
			httputil.WriteBadRequest(w, "Visibility must be public or private")
		case errors.Is(err, model.ErrTitleExists):
			httputil.WriteConflict(w, "You already have an itinerary with this title")
		case errors.Is(err, model.ErrSlugExhausted):
			httputil.WriteConflict(w, "Could not assign a unique slug for this title")
		default:
			httputil.WriteInternalError(w, "Failed to create itinerary")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, itin)
}

// Get returns the fully hydrated itinerary
// GET /itineraries/{itineraryID}
func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	viewer := viewerFromContext(r.Context(), h.config)
	itin, err := h.itineraryService.Get(r.Context(), id, viewer)
	if err != nil {
		if errors.Is(err, model.ErrItineraryNotFound) {
			httputil.WriteNotFound(w, "Itinerary not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to get itinerary")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, itin)
}

// Update applies a partial update
// PATCH /itineraries/{itineraryID}
func (h *ItineraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	id, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	var req model.UpdateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		httputil.WriteBadRequest(w, "Title cannot be empty")
		return
	}

	itin, err := h.itineraryService.Update(r.Context(), id, caller, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrItineraryNotFound):
			httputil.WriteNotFound(w, "Itinerary not found")
		case errors.Is(err, model.ErrInvalidVisibility):
			httputil.WriteBadRequest(w, "Visibility must be public or private")
		case errors.Is(err, model.ErrTitleExists):
			httputil.WriteConflict(w, "You already have an itinerary with this title")
		default:
			httputil.WriteInternalError(w, "Failed to update itinerary")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, itin)
}

// Delete removes the itinerary and everything inside it
// DELETE /itineraries/{itineraryID}
func (h *ItineraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	id, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	if err := h.itineraryService.Delete(r.Context(), id, caller); err != nil {
		if errors.Is(err, model.ErrItineraryNotFound) {
			httputil.WriteNotFound(w, "Itinerary not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to delete itinerary")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Fork deep-copies an itinerary into the caller's collection
// POST /itineraries/{itineraryID}/fork
func (h *ItineraryHandler) Fork(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	id, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	itin, err := h.itineraryService.Fork(r.Context(), id, caller)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrItineraryNotFound):
			httputil.WriteNotFound(w, "Itinerary not found")
		case errors.Is(err, model.ErrSlugExhausted):
			httputil.WriteConflict(w, "Could not assign a unique title for the fork")
		default:
			httputil.WriteInternalError(w, "Failed to fork itinerary")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, itin)
}
