package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	webAdapter "billing-backend/internal/adapters/web"
	"billing-backend/internal/app"
	"billing-backend/internal/cache"
	"billing-backend/internal/core"
	"billing-backend/internal/db"
	"billing-backend/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Setup()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	// Redis is optional: without REDIS_URL the server degrades to an
	// in-process cache.
	var store cache.Cache
	if url := os.Getenv("REDIS_URL"); url != "" {
		redis, err := cache.NewRedis(ctx, url)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer redis.Close()
		store = redis
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-memory cache")
		store = cache.NewMemory()
	}

	coreLog := logger.WithComponent("core")
	svc := app.NewAppService(app.Services{
		Users:             core.NewUserService(pool, store, coreLog),
		Clients:           core.NewClientService(pool, store, coreLog),
		ClientBranches:    core.NewClientBranchService(pool, store, coreLog),
		ClientDepartments: core.NewClientDepartmentService(pool, store, coreLog),
		Departments:       core.NewDepartmentService(pool, store, coreLog),
		Machines:          core.NewMachineService(pool, store, coreLog),
		Billings:          core.NewBillingService(pool, store, coreLog),
		Collections:       core.NewCollectionService(pool, store, coreLog),
		Payments:          core.NewPaymentService(pool, store, coreLog),
	})

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}

	var allowedOrigins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowedOrigins = append(allowedOrigins, o)
		}
	}

	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret, logger.WithComponent("web"))

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
