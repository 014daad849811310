// Package server exposes the HTTP API for controlling and observing scans.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/fsbruva/airsonic-advanced/internal/config"
	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// Server hosts the REST API.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        hclog.Logger
}

// New builds the server and registers all routes.
func New(cfg config.ServerConfig, scans ScanController, folders FolderLister) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log: logger.Named("server"),
	}
	registerRoutes(engine, &handlers{scans: scans, folders: folders})
	return s
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops serving, waiting for in-flight requests up to ctx's
// deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
