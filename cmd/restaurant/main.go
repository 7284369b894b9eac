// Package main запускает HTTP-сервер сервиса заказов ресторана.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/restaurant-ordering/internal/auth"
	"github.com/mmeshcher/restaurant-ordering/internal/cart"
	"github.com/mmeshcher/restaurant-ordering/internal/catalog"
	"github.com/mmeshcher/restaurant-ordering/internal/config"
	"github.com/mmeshcher/restaurant-ordering/internal/handler"
	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/reservation"
	"github.com/mmeshcher/restaurant-ordering/internal/service"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
	"github.com/mmeshcher/restaurant-ordering/internal/support"
)

const menuMaxWait = 10 * time.Second

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	loc, err := cfg.Location()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StorageBackend,
		DSN:         cfg.StorageDSN,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		sugar.Fatalw("storage initialization error", "backend", cfg.StorageBackend, "error", err.Error())
	}
	defer store.Close()

	var menuClient *catalog.Client
	if cfg.MenuURL != "" {
		menuClient = catalog.NewClient(cfg.MenuURL)
	}
	menu, err := catalog.Load(ctx, menuClient, logger, menuMaxWait)
	if err != nil {
		sugar.Fatalw("menu initialization error", "error", err.Error())
	}

	m := mirror.New(store, logger)
	session := auth.NewSession(m, logger)
	directory := auth.NewDirectory(m, session, logger, cfg.BusinessOwners)

	svc := service.NewService(
		m,
		directory,
		cart.NewStore(m, logger, loc),
		menu,
		reservation.NewBook(m, logger, loc, cfg.UndoWindow),
		support.NewDesk(m, logger),
	)
	svc.Rehydrate(ctx)

	h := handler.NewHandler(svc, logger)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Досылка отложенных записей живёт дольше сервера, чтобы принять последние изменения.
	flushCtx, stopFlush := context.WithCancel(context.Background())
	defer stopFlush()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.Run(flushCtx, cfg.FlushInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting restaurant server", "addr", cfg.RunAddress, "storage", cfg.StorageBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		defer stopFlush()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if err := svc.Close(); err != nil {
			return fmt.Errorf("service close error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
