package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tabi-backend/internal/handler"
	"tabi-backend/internal/httputil"
	authmw "tabi-backend/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	ItineraryHandler *handler.ItineraryHandler
	DayGroupHandler  *handler.DayGroupHandler
	BlockHandler     *handler.BlockHandler
	SocialHandler    *handler.SocialHandler
	MediaHandler     *handler.MediaHandler
	JWTSecret        string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	optionalAuth := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
		r.Post("/password-reset/request", cfg.AuthHandler.RequestPasswordReset)
		r.Post("/password-reset/confirm", cfg.AuthHandler.ConfirmPasswordReset)
		r.Post("/verify-email", cfg.AuthHandler.VerifyEmail)
	})

	// Public user endpoints with optional authentication; owners see their
	// private itineraries in the listings.
	r.Route("/users", func(r chi.Router) {
		r.Get("/", cfg.UserHandler.List)
		r.Get("/{username}", cfg.UserHandler.GetByUsername)
		r.Get("/{username}/followers", cfg.SocialHandler.Followers)
		r.Get("/{username}/following", cfg.SocialHandler.Following)
		r.With(optionalAuth).Get("/{username}/itineraries", cfg.ItineraryHandler.ListByUser)
		r.With(optionalAuth).Get("/{username}/itineraries/{slug}", cfg.ItineraryHandler.GetBySlug)
	})

	// Public itinerary reads with optional authentication
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/itineraries", cfg.ItineraryHandler.List)
		r.Get("/itineraries/{itineraryID}", cfg.ItineraryHandler.Get)
		r.Get("/itineraries/{itineraryID}/days", cfg.DayGroupHandler.List)
		r.Get("/itineraries/{itineraryID}/days/{dayID}/blocks", cfg.BlockHandler.List)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Patch("/me", cfg.UserHandler.UpdateProfile)
		r.Post("/me/avatar", cfg.UserHandler.UploadAvatar)
		r.Get("/me/bookmarks", cfg.SocialHandler.ListBookmarks)

		// Auth actions that require authentication
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)
		r.Post("/auth/verify-email/resend", cfg.AuthHandler.ResendVerification)

		// Follow/unfollow
		r.Post("/users/{username}/follow", cfg.SocialHandler.Follow)
		r.Delete("/users/{username}/follow", cfg.SocialHandler.Unfollow)

		// Itinerary writes
		r.Post("/itineraries", cfg.ItineraryHandler.Create)
		r.Patch("/itineraries/{itineraryID}", cfg.ItineraryHandler.Update)
		r.Delete("/itineraries/{itineraryID}", cfg.ItineraryHandler.Delete)
		r.Post("/itineraries/{itineraryID}/fork", cfg.ItineraryHandler.Fork)
		r.Post("/itineraries/{itineraryID}/bookmark", cfg.SocialHandler.Bookmark)
		r.Delete("/itineraries/{itineraryID}/bookmark", cfg.SocialHandler.Unbookmark)

		// Day groups
		r.Post("/itineraries/{itineraryID}/days", cfg.DayGroupHandler.Create)
		r.Patch("/itineraries/{itineraryID}/days/reorder", cfg.DayGroupHandler.Reorder)
		r.Patch("/itineraries/{itineraryID}/days/{dayID}", cfg.DayGroupHandler.Update)
		r.Delete("/itineraries/{itineraryID}/days/{dayID}", cfg.DayGroupHandler.Delete)

		// Blocks
		r.Post("/itineraries/{itineraryID}/days/{dayID}/blocks", cfg.BlockHandler.Create)
		r.Delete("/itineraries/{itineraryID}/days/{dayID}/blocks/{blockID}", cfg.BlockHandler.Delete)

		// Image uploads referenced from image blocks
		r.Post("/upload-image", cfg.MediaHandler.UploadImage)
	})

	return r
}
