// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard serves the live agent dashboard.
//
// The dashboard is a read-only collaborator: it polls ledger suffixes,
// metric snapshots, and the cycle state, and never mutates agent state.
// Routes:
//
//	GET /               embedded HTML dashboard
//	GET /api/actions    recent ledger records (?limit=, default 50)
//	GET /api/metrics    derived campaign metrics + raw counters
//	GET /api/status     cycle state and per-capability modes
//	GET /health         liveness probe
//	GET /metrics        Prometheus exposition
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/GuerrillaFOSS/services/agent/ledger"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/metrics"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/scheduler"
)

//go:embed ui/dashboard.html
var uiFS embed.FS

// LedgerReader is the slice of the ledger the dashboard needs.
type LedgerReader interface {
	Recent(n int) []ledger.ActionRecord
	Len() int
}

// MetricsReader provides counter snapshots.
type MetricsReader interface {
	Snapshot() metrics.Snapshot
}

// StateReader provides the cycle state.
type StateReader interface {
	State() scheduler.CycleState
}

// Config holds dashboard server options.
type Config struct {
	// Port is the HTTP listen port. Default: 5000 (matches the
	// original tool).
	Port int

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	GinMode string
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg      Config
	router   *gin.Engine
	ledger   LedgerReader
	agg      MetricsReader
	state    StateReader
	modes    map[string]string
	exporter *metrics.Exporter
}

// New creates a dashboard server.
//
// Inputs:
//
//	cfg - Server options. Zero port defaults to 5000.
//	led - Ledger reader. Must not be nil.
//	agg - Metrics reader. Must not be nil.
//	state - Cycle state reader. Must not be nil.
//	modes - Per-capability mode labels for /api/status. May be nil.
//	exporter - Prometheus exporter backing /metrics. May be nil.
//
// Outputs:
//
//	*Server - Configured server. Call Run to serve.
//	error - Non-nil if a required reader is missing.
func New(cfg Config, led LedgerReader, agg MetricsReader, state StateReader, modes map[string]string, exporter *metrics.Exporter) (*Server, error) {
	if led == nil || agg == nil || state == nil {
		return nil, errors.New("dashboard requires ledger, metrics, and state readers")
	}
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	s := &Server{
		cfg:      cfg,
		ledger:   led,
		agg:      agg,
		state:    state,
		modes:    modes,
		exporter: exporter,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Router returns the underlying Gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/actions", s.handleActions)
		api.GET("/metrics", s.handleMetrics)
		api.GET("/status", s.handleStatus)
	}

	if s.exporter != nil {
		router.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(s.exporter.Registry(), promhttp.HandlerOpts{})))
	}
	return router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Dashboard listening", "port", s.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dashboard shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server: %w", err)
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleIndex(c *gin.Context) {
	page, err := uiFS.ReadFile("ui/dashboard.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "dashboard UI unavailable")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "agent": "running"})
}

// actionsQuery bounds the ledger suffix a client may request.
type actionsQuery struct {
	Limit int `form:"limit,default=50" binding:"gte=1,lte=500"`
}

func (s *Server) handleActions(c *gin.Context) {
	var q actionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	c.JSON(http.StatusOK, s.ledger.Recent(q.Limit))
}

// CampaignMetrics is the derived metric payload the UI renders.
//
// The formulas intentionally match the original dashboard: scores are
// capped percentages derived from raw activity counters.
type CampaignMetrics struct {
	ViralScore         int64            `json:"viralScore"`
	EngagementRate     int64            `json:"engagementRate"`
	CommunityGrowth    int64            `json:"communityGrowth"`
	ContentCreated     int64            `json:"contentCreated"`
	TrendsIdentified   int64            `json:"trendsIdentified"`
	OpportunitiesFound int64            `json:"opportunitiesFound"`
	TotalReach         int64            `json:"totalReach"`
	EarnedMediaValue   int64            `json:"earnedMediaValue"`
	Counters           metrics.Snapshot `json:"counters"`
}

// DeriveCampaignMetrics computes the UI metric payload from a snapshot.
func DeriveCampaignMetrics(snap metrics.Snapshot) CampaignMetrics {
	actions := snap[metrics.ActionsTotal]
	return CampaignMetrics{
		ViralScore:         capPct(actions * 2),
		EngagementRate:     capPct(snap[metrics.Engagements] * 3),
		CommunityGrowth:    capPct(actions * 2),
		ContentCreated:     snap[metrics.ContentCreated],
		TrendsIdentified:   snap[metrics.TrendsIdentified],
		OpportunitiesFound: snap[metrics.OpportunitiesFound],
		TotalReach:         snap[metrics.EstimatedReach],
		EarnedMediaValue:   actions * 75,
		Counters:           snap,
	}
}

func capPct(v int64) int64 {
	if v > 100 {
		return 100
	}
	return v
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, DeriveCampaignMetrics(s.agg.Snapshot()))
}

func (s *Server) handleStatus(c *gin.Context) {
	state := s.state.State()
	c.JSON(http.StatusOK, gin.H{
		"cycle_count":      state.CycleCount,
		"last_run":         state.LastRun,
		"mode":             state.Mode,
		"interval_seconds": state.IntervalSeconds,
		"is_running":       state.Running,
		"capability_modes": s.modes,
		"ledger_length":    s.ledger.Len(),
	})
}
