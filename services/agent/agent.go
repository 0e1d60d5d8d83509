// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent wires the guerrilla marketing agent together: capability
// selection, the action ledger (optionally Badger-backed), the metrics
// aggregator with its Prometheus exporter, the cycle orchestrator, and
// the dashboard server. cmd/agent builds a Config and calls New + Run.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/GuerrillaFOSS/services/agent/capability"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/ledger"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/metrics"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/scheduler"
	"github.com/AleutianAI/GuerrillaFOSS/services/dashboard"
)

// ConfigurationError reports a startup-fatal configuration problem.
// The agent degrades through almost everything at runtime; configuration
// contradictions are the one thing it refuses to start with.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Service is the assembled agent: one orchestrator, one dashboard, one
// ledger, running under a shared context.
type Service struct {
	cfg          Config
	caps         *capability.Set
	ledger       *ledger.Ledger
	aggregator   *metrics.Aggregator
	exporter     *metrics.Exporter
	orchestrator *scheduler.Orchestrator
	dashboard    *dashboard.Server

	traceCleanup func(context.Context) error
}

// New assembles a Service from cfg.
//
// Description:
//
//	Selects the capability set exactly once (demo override wins over
//	credentials; explicit live mode with zero credentials is refused),
//	opens the Badger archive when DataDir is set, and constructs the
//	orchestrator and dashboard against the shared ledger and metrics.
//
// Inputs:
//
//	ctx - Used for archive replay and tracer setup.
//	cfg - Agent configuration. See Config for defaults.
//
// Outputs:
//
//	*Service - Ready to Run.
//	error - *ConfigurationError for bad config, otherwise a wiring failure.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	caps, err := capability.BuildSet(cfg.Credentials, capability.Options{
		DemoOverride: cfg.DemoMode,
		RequireLive:  !cfg.DemoMode,
		Seed:         cfg.DemoSeed,
	})
	if err != nil {
		if errors.Is(err, capability.ErrNoLiveCredentials) {
			return nil, &ConfigurationError{
				Reason: "demo_mode is off but no live credentials are set",
				Err:    err,
			}
		}
		return nil, err
	}

	svc := &Service{cfg: cfg, caps: caps}

	if cfg.OTelEndpoint != "" {
		cleanup, err := initTracer(ctx, cfg.OTelEndpoint)
		if err != nil {
			return nil, fmt.Errorf("setup OTLP tracer: %w", err)
		}
		svc.traceCleanup = cleanup
	}

	if cfg.DataDir != "" {
		archive, err := ledger.OpenArchive(filepath.Join(cfg.DataDir, "ledger"))
		if err != nil {
			return nil, fmt.Errorf("open ledger archive: %w", err)
		}
		svc.ledger, err = ledger.NewWithArchive(ctx, archive)
		if err != nil {
			return nil, fmt.Errorf("replay ledger archive: %w", err)
		}
	} else {
		svc.ledger = ledger.New()
	}

	svc.exporter = metrics.NewExporter()
	svc.aggregator = metrics.NewAggregator(svc.exporter)

	svc.orchestrator, err = scheduler.New(scheduler.Config{
		Interval:  time.Duration(cfg.IntervalSeconds) * time.Second,
		MaxCycles: cfg.MaxCycles,
		Seed:      cfg.DemoSeed,
	}, caps, svc.ledger, svc.aggregator, svc.exporter)
	if err != nil {
		return nil, err
	}

	modes := make(map[string]string, len(caps.Modes))
	for name, mode := range caps.Modes {
		modes[name] = string(mode)
	}
	svc.dashboard, err = dashboard.New(dashboard.Config{
		Port:    cfg.Port,
		GinMode: cfg.GinMode,
	}, svc.ledger, svc.aggregator, svc.orchestrator, modes, svc.exporter)
	if err != nil {
		return nil, err
	}

	return svc, nil
}

// Run starts the orchestrator loop and the dashboard server, and blocks
// until the context is cancelled or either component fails. Shutdown is
// graceful: the dashboard drains, the ledger archive closes, and the
// trace exporter flushes.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("Guerrilla agent starting",
		"port", s.cfg.Port,
		"interval_seconds", s.cfg.IntervalSeconds,
		"demo_mode", s.cfg.DemoMode,
		"persistent", s.cfg.DataDir != "",
	)

	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.orchestrator.Run(runCtx) })
	g.Go(func() error { return s.dashboard.Run(runCtx) })

	err := g.Wait()

	if closeErr := s.ledger.Close(); closeErr != nil {
		slog.Error("Ledger close failed", "error", closeErr)
	}
	if s.traceCleanup != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if flushErr := s.traceCleanup(flushCtx); flushErr != nil {
			slog.Error("Trace exporter shutdown failed", "error", flushErr)
		}
	}
	return err
}

// Dashboard exposes the dashboard server, mainly so tests can reach its
// router without starting a listener.
func (s *Service) Dashboard() *dashboard.Server { return s.dashboard }

// Ledger exposes the shared action ledger.
func (s *Service) Ledger() *ledger.Ledger { return s.ledger }

// Metrics exposes the shared aggregator.
func (s *Service) Metrics() *metrics.Aggregator { return s.aggregator }

// initTracer wires the OTLP gRPC trace exporter and installs the global
// tracer provider. Returns a shutdown func that flushes pending spans.
func initTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("guerrilla-agent")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return traceProvider.Shutdown, nil
}
