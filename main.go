package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"community-server/confs"
	"community-server/db"
	"community-server/logging"
	"community-server/media"
	"community-server/repositories"
	"community-server/server"
)

func main() {
	log := logging.NewJSON()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logging.SlogLogger) error {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps := server.Deps{Registry: prometheus.NewRegistry()}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	switch cfg.StoreDriver {
	case "memory":
		log.Warn(ctx, "using in-memory store, data is lost on restart")
		deps.Users = repositories.NewUserMemRepository()
		deps.Subs = repositories.NewSubMemRepository()
	default:
		database, err := db.Connect(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer database.Close()
		deps.Users = repositories.NewUserPgRepository(database)
		deps.Subs = repositories.NewSubPgRepository(database)
	}

	switch cfg.MediaBackend {
	case "s3":
		store, err := media.NewS3(ctx, media.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return err
		}
		deps.Media = store
	default:
		store, err := media.NewDisk(cfg.MediaDir, strings.TrimRight(cfg.AppURL, "/")+"/images")
		if err != nil {
			return err
		}
		deps.Media = store
		deps.MediaDir = store.Dir()
	}
	log.Info(ctx, "stores ready", "store", cfg.StoreDriver, "media", cfg.MediaBackend)

	srv, err := server.NewServer(cfg, log, deps)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info(shutdownCtx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}
