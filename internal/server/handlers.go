package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// ScanController is the scan service surface the API needs.
type ScanController interface {
	ScanLibrary()
	IsScanning() bool
	ScanCount() int64
	Statistics(ctx context.Context) (*database.IndexStatistics, error)
}

// FolderLister provides the configured library roots.
type FolderLister interface {
	All(ctx context.Context) ([]*database.MusicFolder, error)
}

type handlers struct {
	scans   ScanController
	folders FolderLister
}

func registerRoutes(engine *gin.Engine, h *handlers) {
	engine.GET("/health", h.health)

	api := engine.Group("/api")
	{
		api.POST("/scanner/start", h.startScan)
		api.GET("/scanner/status", h.scanStatus)
		api.GET("/scanner/statistics", h.scanStatistics)
		api.GET("/folders", h.listFolders)
	}
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// startScan requests a scan. Requesting while a scan runs is not an error;
// the response reports the scanning state either way.
func (h *handlers) startScan(c *gin.Context) {
	h.scans.ScanLibrary()
	c.JSON(http.StatusAccepted, gin.H{
		"scanning": h.scans.IsScanning(),
	})
}

func (h *handlers) scanStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scanning": h.scans.IsScanning(),
		"count":    h.scans.ScanCount(),
	})
}

func (h *handlers) scanStatistics(c *gin.Context) {
	stats, err := h.scans.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "library has never been scanned"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) listFolders(c *gin.Context) {
	folders, err := h.folders.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}
