package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"recipe-harvester/internal/adapter/harvesthttp"
	"recipe-harvester/internal/di"
	"recipe-harvester/internal/infra"
	"recipe-harvester/internal/infra/config"
	"recipe-harvester/internal/infra/logger"
	"recipe-harvester/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.New()
	slog.SetDefault(log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	dbPool, err := infra.NewPostgresDB(context.Background(), dsn)
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	components := di.NewApplicationComponents(cfg, dbPool, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("http_request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))

	handler := harvesthttp.NewHandler(
		components.HarvestUsecase,
		components.BackfillUsecase,
		components.EmbedUsecase,
		components.ReviewUsecase,
		components.Repo,
	)
	handler.Register(e)

	backfillWorker := worker.NewBackfillWorker(
		components.BackfillUsecase,
		time.Duration(cfg.BackfillIntervalMins)*time.Minute,
		cfg.BackfillBatchSize,
		log,
	)
	backfillWorker.Start()
	defer backfillWorker.Stop()

	go func() {
		addr := ":" + cfg.Port
		log.Info("server_starting", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server_shutting_down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
