package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/agrodesk/internal/config"
	"github.com/iliyamo/agrodesk/internal/database"
	"github.com/iliyamo/agrodesk/internal/handler"
	"github.com/iliyamo/agrodesk/internal/logging"
	"github.com/iliyamo/agrodesk/internal/middleware"
	"github.com/iliyamo/agrodesk/internal/queue"
	"github.com/iliyamo/agrodesk/internal/repository"
	"github.com/iliyamo/agrodesk/internal/router"
	"github.com/iliyamo/agrodesk/internal/service"
	"github.com/iliyamo/agrodesk/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.MigrateUp(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn("redis unavailable, rate limiting and alert cache disabled")
	}

	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.AMQPURL != "" {
		publisher = queue.NewAMQPPublisher(cfg.AMQPURL)
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.NotifyLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", slog.Any("err", err))
			}
		}()
	} else {
		log.Warn("AMQP_URL not set, notification events are dropped")
	}
	defer publisher.Close()

	var images handler.ImagePresigner
	if cfg.S3.Enabled() {
		store, err := storage.NewImageStore(ctx, cfg.S3)
		if err != nil {
			return err
		}
		images = store
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	reports := repository.NewReportRepo(db)
	crops := repository.NewCropRepo(db)
	alerts := repository.NewAlertRepo(db)

	authSvc := &service.AuthService{
		Users:      users,
		Tokens:     tokens,
		Reports:    reports,
		Crops:      crops,
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		BcryptCost: cfg.BcryptCost,
	}

	e := router.New(router.Deps{
		Config:  cfg,
		Logger:  log,
		Redis:   rdb,
		DB:      db,
		Auth:    handler.NewAuthHandler(authSvc, cfg.JWTSecret),
		Reports: handler.NewReportHandler(&service.ReportService{Reports: reports, Events: publisher}, images),
		Crops:   handler.NewCropHandler(&service.CropService{Crops: crops}),
		Alerts: handler.NewAlertHandler(&service.AlertService{
			Alerts: alerts,
			Events: publisher,
			Cache:  middleware.NewCachePurger(cfg.Cache, rdb),
		}),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
