package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tabi-backend/internal/config"
	"tabi-backend/internal/httputil"
	"tabi-backend/internal/model"
	"tabi-backend/internal/service"
	"tabi-backend/internal/transport/http/middleware"
)

// SocialHandler serves the follow and bookmark endpoints.
type SocialHandler struct {
	socialService *service.SocialService
	userService   *service.UserService
	config        *config.Config
}

func NewSocialHandler(socialService *service.SocialService, userService *service.UserService, cfg *config.Config) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
		userService:   userService,
		config:        cfg,
	}
}

// Follow makes the caller follow the named user
// POST /users/{username}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	followee, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	if err := h.socialService.Follow(r.Context(), followerID, followee.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequest(w, "You cannot follow yourself")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			httputil.WriteInternalError(w, "Failed to follow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Following"})
}

// Unfollow removes the follow edge; missing edges succeed quietly
// DELETE /users/{username}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	followee, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	if err := h.socialService.Unfollow(r.Context(), followerID, followee.ID); err != nil {
		httputil.WriteInternalError(w, "Failed to unfollow user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Unfollowed"})
}

// Followers lists users following the named user
// GET /users/{username}/followers
func (h *SocialHandler) Followers(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.socialService.GetFollowers(r.Context(), user.ID, limit)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list followers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// Following lists users the named user follows
// GET /users/{username}/following
func (h *SocialHandler) Following(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.socialService.GetFollowing(r.Context(), user.ID, limit)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list following")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// Bookmark saves an itinerary for the caller
// POST /itineraries/{itineraryID}/bookmark
func (h *SocialHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context(), h.config)
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	itineraryID, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	if err := h.socialService.Bookmark(r.Context(), caller, itineraryID); err != nil {
		if errors.Is(err, model.ErrItineraryNotFound) {
			httputil.WriteNotFound(w, "Itinerary not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to bookmark itinerary")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Bookmarked"})
}

// Unbookmark removes a saved itinerary; missing edges succeed quietly
// DELETE /itineraries/{itineraryID}/bookmark
func (h *SocialHandler) Unbookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}
	itineraryID, ok := pathID(r, "itineraryID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid itinerary ID")
		return
	}

	if err := h.socialService.Unbookmark(r.Context(), userID, itineraryID); err != nil {
		httputil.WriteInternalError(w, "Failed to remove bookmark")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Bookmark removed"})
}

// ListBookmarks returns the caller's saved itineraries
// GET /me/bookmarks
func (h *SocialHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	itins, err := h.socialService.ListBookmarks(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list bookmarks")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, itins)
}

func (h *SocialHandler) resolveUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return nil, false
	}

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return nil, false
		}
		httputil.WriteInternalError(w, "Failed to get user")
		return nil, false
	}
	return user, true
}
