package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tabi-backend/internal/config"
	"tabi-backend/internal/service"
	"tabi-backend/internal/transport/http/middleware"
)

// callerFromContext builds the caller identity for a route behind the auth
// middleware. The admin flag comes from the allow-list check on the token's
// email subject.
func callerFromContext(ctx context.Context, cfg *config.Config) (service.Caller, bool) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return service.Caller{}, false
	}
	email, _ := middleware.GetUserEmailFromContext(ctx)
	return service.Caller{UserID: userID, Admin: cfg.IsAdmin(email)}, true
}

// viewerFromContext returns the caller on optional-auth routes, or nil for
// anonymous requests.
func viewerFromContext(ctx context.Context, cfg *config.Config) *service.Caller {
	caller, ok := callerFromContext(ctx, cfg)
	if !ok {
		return nil
	}
	return &caller
}

// pathID parses a numeric URL parameter. The second return value is false
// for missing or non-numeric values.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
