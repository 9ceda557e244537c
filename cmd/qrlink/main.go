package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rawen554/qrlink/internal/app"
	"github.com/rawen554/qrlink/internal/config"
	"github.com/rawen554/qrlink/internal/logger"
	"github.com/rawen554/qrlink/internal/logic"
	"github.com/rawen554/qrlink/internal/models"
	"github.com/rawen554/qrlink/internal/session"
	"github.com/rawen554/qrlink/internal/store/fs"
	"github.com/rawen554/qrlink/internal/store/memory"
	"github.com/rawen554/qrlink/internal/store/postgres"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Storage interface {
	logic.Store
	Close()
}

func newStorage(conf *config.ServerConfig) (Storage, error) {
	if conf.DatabaseDSN != "" {
		return postgres.NewPostgresStore(conf.DatabaseDSN)
	}
	if conf.FileStoragePath != "" {
		return fs.NewFileStorage(conf.FileStoragePath)
	}
	return memory.NewMemoryStorage(make(map[string]models.Record))
}

func run(conf *config.ServerConfig, logger *zap.SugaredLogger) error {
	storage, err := newStorage(conf)
	if err != nil {
		return err
	}
	defer storage.Close()

	coreLogic := logic.NewCoreLogic(conf, storage, logger.Named("core"))
	sessions := session.NewStore()

	qrlinkApp := app.NewApp(conf, coreLogic, sessions, logger)
	r, err := qrlinkApp.SetupRouter()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    conf.RunAddr,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if conf.EnableHTTPS {
			if err := app.CreateCertificates(conf.TLSCertPath, conf.TLSKeyPath, logger); err != nil {
				serveErr <- err
				return
			}
			serveErr <- srv.ListenAndServeTLS(conf.TLSCertPath, conf.TLSKeyPath)
			return
		}
		serveErr <- srv.ListenAndServe()
	}()

	logger.Infow("server started", "addr", conf.RunAddr, "https", conf.EnableHTTPS)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	conf, err := config.ParseFlags()
	if err != nil {
		log.Fatal(err)
	}

	zapLogger, err := logger.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	if err := run(conf, zapLogger); err != nil {
		zapLogger.Fatal(err)
	}
}
