package main

import (
	"context"
	"log"
	"time"

	"ticket-booking/cmd"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/usecase"
	"ticket-booking/internal/wire"
	"ticket-booking/pkg/database"
	"ticket-booking/pkg/metrics"
	"ticket-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	var rdb *redis.Client
	if config.Redis.Enabled() {
		rdb, err = database.InitRedis(config.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		logger.Info("Redis connected, submission guard enabled", zap.String("addr", config.Redis.Addr))
	} else {
		logger.Warn("REDIS_ADDR not set, duplicate submission guard disabled")
	}

	metrics.Register()

	gateway, err := usecase.NewPaymentGateway(config.Payment)
	if err != nil {
		logger.Fatal("Failed to init payment gateway", zap.Error(err))
	}

	repos := repository.NewRepository(db, rdb, logger)
	app := wire.Wiring(db, repos, gateway, config, logger)

	if config.App.SeedCatalog {
		n, err := app.Service.Item.SeedSampleCatalog(ctx)
		if err != nil {
			logger.Fatal("Failed to seed catalog", zap.Error(err))
		}
		logger.Info("Catalog seeded", zap.Int("items", n))
	}

	go cmd.SessionJanitor(ctx, repos.Session, 15*time.Minute, logger)

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
