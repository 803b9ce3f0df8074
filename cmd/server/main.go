package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/application/service"
	"github.com/wa2g/denis-portal/internal/config"
	httpiface "github.com/wa2g/denis-portal/internal/interfaces/http"
	"github.com/wa2g/denis-portal/internal/repository"
	"github.com/wa2g/denis-portal/internal/upstream"
	"github.com/wa2g/denis-portal/internal/worker"
	"github.com/wa2g/denis-portal/pkg/database"
	"github.com/wa2g/denis-portal/pkg/utils"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting farm-supply portal gateway",
		zap.Int("port", cfg.Server.Port),
		zap.String("upstream", cfg.Upstream.BaseURL))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(repository.Schema()); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	historyRepo := repository.NewTransitionHistoryRepository(db.DB, logger)
	keyRepo := repository.NewIdempotencyRepository(db.DB, logger)

	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	}, logger)

	orders := service.NewOrdersService(client, historyRepo, keyRepo, logger)
	invoices := service.NewInvoicesService(client, historyRepo, keyRepo, logger)
	requests := service.NewRequestsService(client, invoices, historyRepo, keyRepo, logger)
	stock := service.NewStockService(client, historyRepo, keyRepo, logger)
	masters := service.NewMastersService(client, logger)

	manager := worker.NewManager(logger)
	if cfg.Refresh.Enabled {
		refresher := worker.NewStoreRefresher(cfg.Refresh.Interval, cfg.Upstream.ServiceToken, logger)
		refresher.Track("orders", orders.Store().Load)
		refresher.Track("invoices", invoices.Store().Load)
		refresher.Track("requests", requests.Store().Load)
		refresher.Track("stock-receipts", stock.Store().Load)
		refresher.Track("customers", masters.CustomerStore().Load)
		refresher.Track("loans", masters.LoanStore().Load)
		refresher.Track("users", masters.UserStore().Load)
		manager.Register(refresher)
	}

	srv := httpiface.NewServer(httpiface.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpiface.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		CookieName: cfg.Auth.CookieName,
		LoginURL:   cfg.Auth.LoginURL,
	}, httpiface.Deps{
		Orders:   orders,
		Invoices: invoices,
		Requests: requests,
		Stock:    stock,
		Masters:  masters,
		History:  historyRepo,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start background workers", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	manager.StopAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
