package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filing-tracker/internal/tracker/config"
	delivery "filing-tracker/internal/tracker/delivery/http"
	"filing-tracker/internal/tracker/repository"
	"filing-tracker/internal/tracker/scraper"
	"filing-tracker/internal/tracker/service"
	"filing-tracker/pkg/logger"
	"filing-tracker/pkg/postgres"
	"filing-tracker/pkg/redis"
	"filing-tracker/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the filing tracker service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Filing Tracker Service", logger.StringField("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize Telegram notifier
	var notifier telegram.Notifier = telegram.NopNotifier{}
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize content retriever
	retriever, err := scraper.NewNewsRetriever(scraper.Config{
		FeedBaseURL:         cfg.Scraper.NewsFeedBaseURL,
		MaxCandidates:       cfg.Scraper.MaxCandidates,
		SearchTimeout:       cfg.Scraper.SearchTimeout,
		ExtractTimeout:      cfg.Scraper.ExtractTimeout,
		MaxRequestPerMinute: cfg.Scraper.MaxRequestPerMinute,
	}, appLogger, scraper.DefaultExtractors(cfg.Scraper.ExtractTimeout, appLogger)...)
	if err != nil {
		appLogger.Fatal("Failed to initialize content retriever", logger.ErrorField(err))
	}

	// Initialize repositories and services
	filingRepo := repository.NewFilingRepository(db.DB)
	historyRepo := repository.NewFilingHistoryRepository(db.DB)
	locker := service.NewRedisArchiveLocker(redisClient.Client)
	filingSvc := service.NewFilingService(filingRepo, historyRepo, retriever, locker, notifier, appLogger)

	scanScheduler, err := service.NewScanScheduler(filingSvc, cfg.Tracker.ScanSchedule, cfg.Tracker.ScanTimeout, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize scan scheduler", logger.ErrorField(err))
	}
	go scanScheduler.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	filingHandler := delivery.NewFilingHandler(filingSvc, appLogger)
	apiV1 := e.Group("/api/v1")
	filingHandler.RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "tracker-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-tracker.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing tracker-service CLI: %s\n", err)
		os.Exit(1)
	}
}
