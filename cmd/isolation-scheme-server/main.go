package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/isolation-scheme/internal/logging"
	"github.com/iwvelando/isolation-scheme/internal/server"
	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"go.uber.org/zap"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	maxUpload := flag.String("max-upload-size", "", "maximum configuration upload size override (e.g. 512K)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return 1
	}
	if *address != "" {
		cfg.Address = *address
	}
	if *maxUpload != "" {
		size, err := server.ParseSize(*maxUpload)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid upload size\", \"error\": \"%v\"}\n", err)
			return 1
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg.UploadSizeBytes(), Version),
		ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting isolation scheme server",
			zap.String("op", "main"),
			zap.String("service", constants.ServiceName),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
			zap.String("version", Version),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down server",
				zap.String("op", "main"),
				zap.Error(err),
			)
			return 1
		}
		logger.Info("server exited properly", zap.String("op", "main"))
		return 0
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return 1
	}
}
