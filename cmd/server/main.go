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

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/client"
	"github.com/Frankie813/smart-stock-trader/internal/config"
	"github.com/Frankie813/smart-stock-trader/internal/engine"
	"github.com/Frankie813/smart-stock-trader/internal/handler"
	"github.com/Frankie813/smart-stock-trader/internal/kafka"
	"github.com/Frankie813/smart-stock-trader/internal/middleware"
	"github.com/Frankie813/smart-stock-trader/internal/predictor"
	"github.com/Frankie813/smart-stock-trader/internal/repository"
	"github.com/Frankie813/smart-stock-trader/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	stockRepo := repository.NewStockRepository(db, logger)
	priceRepo := repository.NewPriceRepository(db, logger)
	backtestRepo := repository.NewBacktestRepository(db, logger)
	experimentRepo := repository.NewExperimentRepository(db, logger)

	// Initialize clients
	massiveClient := client.NewMassiveClient(
		cfg.MarketData.BaseURL,
		cfg.MarketData.APIKey,
		cfg.MarketData.RequestsPerMinute,
		logger,
	)
	predictorClient := predictor.NewClient(cfg.Predictor.URL, logger)

	// Initialize Kafka producer
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID, logger)
	defer producer.Close()

	// Initialize services
	backtestEngine := engine.New(cfg.Backtest.MinBars)
	stockService := service.NewStockService(stockRepo, logger)
	marketDataService := service.NewMarketDataService(massiveClient, stockRepo, priceRepo, logger)
	backtestService := service.NewBacktestService(
		backtestEngine,
		predictorClient,
		priceRepo,
		backtestRepo,
		logger,
	)
	experimentService := service.NewExperimentService(
		experimentRepo,
		stockRepo,
		backtestService,
		producer,
		cfg.Backtest.Workers,
		logger,
	)

	// Initialize handlers
	stockHandler := handler.NewStockHandler(stockService, logger)
	marketDataHandler := handler.NewMarketDataHandler(marketDataService, logger)
	experimentHandler := handler.NewExperimentHandler(experimentService, logger)
	backtestHandler := handler.NewBacktestHandler(backtestService, logger)

	// Set up HTTP server with Gin
	router := setupRouter(
		stockHandler,
		marketDataHandler,
		experimentHandler,
		backtestHandler,
		logger,
		cfg,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

func setupRouter(
	stockHandler *handler.StockHandler,
	marketDataHandler *handler.MarketDataHandler,
	experimentHandler *handler.ExperimentHandler,
	backtestHandler *handler.BacktestHandler,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Stock registry routes
		stocks := v1.Group("/stocks")
		{
			stocks.GET("", stockHandler.GetAllStocks)
			stocks.GET("/:id", stockHandler.GetStock)
			stocks.POST("", stockHandler.CreateStock)
			stocks.PUT("/:id", stockHandler.UpdateStock)
			stocks.DELETE("/:id", stockHandler.DeactivateStock)

			// Price history for a stock
			stocks.GET("/:id/prices", marketDataHandler.GetPrices)
			stocks.GET("/:id/prices/coverage", marketDataHandler.GetCoverage)
			stocks.POST("/:id/prices/fetch", marketDataHandler.FetchPrices)
		}

		// Experiment routes
		experiments := v1.Group("/experiments")
		{
			experiments.GET("", experimentHandler.ListExperiments)
			experiments.POST("", experimentHandler.CreateExperiment)
			experiments.GET("/:id", experimentHandler.GetExperiment)
		}

		// Backtest result routes
		backtests := v1.Group("/backtests")
		{
			backtests.GET("/:id", backtestHandler.GetBacktestResult)
		}

		// Service-to-service routes (requires service key)
		svc := v1.Group("/service")
		svc.Use(middleware.ServiceAuthMiddleware(cfg.ServiceKey, logger))
		{
			svc.POST("/stocks/:id/prices/fetch", marketDataHandler.FetchPrices)
		}
	}
	return router
}
