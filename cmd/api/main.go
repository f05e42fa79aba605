package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nftloan-backend/internal/adapter/events"
	httpadp "nftloan-backend/internal/adapter/http"
	idemp "nftloan-backend/internal/adapter/middleware"
	"nftloan-backend/internal/adapter/repository/mysql"
	"nftloan-backend/internal/config"
	"nftloan-backend/internal/infrastructure/cache"
	"nftloan-backend/internal/infrastructure/db"
	"nftloan-backend/internal/infrastructure/logging"
	"nftloan-backend/internal/infrastructure/metrics"
	"nftloan-backend/internal/usecase/approval"
	"nftloan-backend/internal/usecase/auction"
	"nftloan-backend/internal/usecase/loan"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "nftloan:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), logger)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("mysql handle: %w", err)
	}
	if err := mysql.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB, logger)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer rdb.Close()

	tx := mysql.NewGormUoW(gdb)
	registry := mysql.NewAssetRegistry(gdb)
	book := mysql.NewAccountBook(gdb, cfg.Vault())

	policy := approval.NewPolicy(cfg.Owner(), tx, cfg.ProtocolFeeBps, logger)
	if err := policy.Load(ctx); err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	if err := policy.Seed(ctx, cfg.Allowed()); err != nil {
		return fmt.Errorf("seed allow-list: %w", err)
	}

	m := metrics.Auction()
	publisher := events.NewPublisher(rdb, cfg.EventsChannel, 0, m, logger)
	defer func() { _ = publisher.Close() }()

	engine := auction.NewEngine(registry, book, policy, policy, auction.Config{Vault: cfg.Vault(), Owner: cfg.Owner()})
	engine.SetLogger(logger.Named("auction"))
	engine.SetEmitter(events.Fanout{events.NewLogEmitter(logger), publisher})

	loans := loan.NewUsecase(engine, tx, m, logger)
	if err := loans.Restore(ctx); err != nil {
		return fmt.Errorf("restore loans: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		middleware.Logger(),
		middleware.Recover(),
		idemp.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, logger),
	)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	httpadp.RegisterRoutes(e, httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Ping: sqlDB.PingContext},
			httpadp.Check{Name: "redis", Ping: cache.Pinger(rdb)},
		),
		Loans:    httpadp.NewLoanHandler(loans),
		Admin:    httpadp.NewApprovalHandler(policy, loans),
		Accounts: httpadp.NewAccountHandler(cfg.Owner(), registry, book),
	})

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
