package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsbruva/airsonic-advanced/internal/config"
	"github.com/fsbruva/airsonic-advanced/internal/coverart"
	"github.com/fsbruva/airsonic-advanced/internal/database"
	"github.com/fsbruva/airsonic-advanced/internal/events"
	"github.com/fsbruva/airsonic-advanced/internal/logger"
	"github.com/fsbruva/airsonic-advanced/internal/playlist"
	"github.com/fsbruva/airsonic-advanced/internal/repository"
	"github.com/fsbruva/airsonic-advanced/internal/scanner"
	"github.com/fsbruva/airsonic-advanced/internal/search"
	"github.com/fsbruva/airsonic-advanced/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	folderFlag := flag.String("folders", "", "comma-separated media folder paths to register on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	folders := repository.NewFolderRepository(db)
	for _, path := range strings.Split(*folderFlag, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := folders.Ensure(ctx, path, path, database.FolderTypeMedia); err != nil {
			logger.Error("failed to register media folder", "path", path, "error", err)
			os.Exit(1)
		}
	}

	bus := events.NewBus(256)
	throttler := scanner.NewThrottler(cfg.Scanner.MaxCPUPercent, cfg.Scanner.MaxMemoryPercent)

	scanSvc := scanner.New(
		cfg.Scanner,
		folders,
		repository.NewMediaFileRepository(db, cfg.Scanner.CueIndexing),
		repository.NewAlbumRepository(db),
		repository.NewArtistRepository(db),
		search.NewIndexManager(db),
		coverart.NewService(db),
		playlist.NewImporter(db, cfg.Playlists.Folder),
		bus,
		throttler,
	)

	scheduler := scanner.NewScheduler(scanSvc)
	if err := scheduler.Start(ctx, cfg.Scanner.Schedule); err != nil {
		logger.Error("failed to start scan scheduler", "error", err)
		os.Exit(1)
	}

	var watcher *scanner.Watcher
	if cfg.Scanner.AutoScan {
		watcher, err = scanner.NewWatcher(scanSvc, folders)
		if err != nil {
			logger.Error("failed to create filesystem watcher", "error", err)
			os.Exit(1)
		}
		if err := watcher.Start(ctx); err != nil {
			logger.Error("failed to start filesystem watcher", "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(cfg.Server, scanSvc, folders)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown incomplete", "error", err)
	}
	scheduler.Stop()
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("watcher shutdown failed", "error", err)
		}
	}
	if throttler != nil {
		throttler.Stop()
	}
	bus.Stop()
}
