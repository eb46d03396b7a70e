package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"time"

	"tabi-backend/internal/cache"
	"tabi-backend/internal/config"
	"tabi-backend/internal/database"
	"tabi-backend/internal/handler"
	"tabi-backend/internal/redis"
	"tabi-backend/internal/repository"
	"tabi-backend/internal/service"
)

// Run wires the whole application and blocks serving HTTP.
func Run() error {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database and apply migrations
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.ApplyMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// 3. Connect to Redis
	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	itineraryRepo := repository.NewItineraryRepository(db)
	dayGroupRepo := repository.NewDayGroupRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	followRepo := repository.NewFollowRepository(db)

	// 5. Services
	itineraryCache := cache.NewItineraryCache(rdb.Client)

	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshTokenRepo, userRepo, cfg)
	mailService := service.NewMailService(cfg)
	itineraryService := service.NewItineraryService(itineraryRepo, itineraryCache)
	dayGroupService := service.NewDayGroupService(dayGroupRepo, itineraryService)
	blockService := service.NewBlockService(blockRepo, dayGroupRepo, itineraryService)
	socialService := service.NewSocialService(followRepo, bookmarkRepo, userRepo, itineraryService)

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	// Sweep refresh tokens that expired more than a day ago.
	if purged, err := authService.PurgeExpiredTokens(ctx, 24*time.Hour); err != nil {
		log.Printf("Failed to purge expired refresh tokens: %v", err)
	} else if purged > 0 {
		log.Printf("Purged %d expired refresh tokens", purged)
	}

	// 6. Handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler:      handler.NewAuthHandler(userService, authService, mailService, cfg),
		UserHandler:      handler.NewUserHandler(userService, mediaService),
		ItineraryHandler: handler.NewItineraryHandler(itineraryService, userService, cfg),
		DayGroupHandler:  handler.NewDayGroupHandler(dayGroupService, cfg),
		BlockHandler:     handler.NewBlockHandler(blockService, cfg),
		SocialHandler:    handler.NewSocialHandler(socialService, userService, cfg),
		MediaHandler:     handler.NewMediaHandler(mediaService),
		JWTSecret:        cfg.JWTSecret,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
