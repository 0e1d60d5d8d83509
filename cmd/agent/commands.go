// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/GuerrillaFOSS/pkg/logging"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// --- Global Command Variables ---
var (
	configPath      string
	port            int
	intervalSeconds int
	demoMode        bool
	demoSeed        int64
	dataDir         string
	maxCycles       int
	logLevel        string
	logDir          string
	logJSON         bool

	rootCmd = &cobra.Command{
		Use:   "guerrilla-agent",
		Short: "A zero-budget autonomous guerrilla marketing agent",
		Long: `guerrilla-agent runs a recurring marketing cycle (trend scan,
content creation, engagement, publishing, outreach, SEO, analysis),
records every action with its strategic justification, and serves a
live dashboard. With no configuration it runs fully in demo mode.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the marketing cycle and the dashboard server",
		RunE:  runAgent, // Defined below
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("guerrilla-agent %s\n", Version)
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	runCmd.Flags().IntVarP(&port, "port", "p", 0, "Dashboard port (overrides config and PORT)")
	runCmd.Flags().IntVar(&intervalSeconds, "interval", 0, "Seconds between cycle starts")
	runCmd.Flags().BoolVar(&demoMode, "demo", true, "Force demo mode regardless of credentials")
	runCmd.Flags().Int64Var(&demoSeed, "seed", 0, "Seed for demo adapters (0 = random)")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for the persistent action ledger")
	runCmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "Stop after N cycles (0 = run forever)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	runCmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for daily JSON log files")
	runCmd.Flags().BoolVar(&logJSON, "log-json", false, "JSON log output on stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// runAgent assembles the config (defaults < file < environment < flags)
// and runs the agent until SIGINT/SIGTERM.
func runAgent(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(logLevel),
		LogDir:  logDir,
		Service: "guerrilla-agent",
		JSON:    logJSON,
	})
	defer logger.Close()
	logger.SetAsDefault()

	cfg := agent.DefaultConfig()
	if configPath != "" {
		if err := agent.LoadFile(configPath, &cfg); err != nil {
			return err
		}
	}
	envCfg := agent.FromEnv()
	cfg.Credentials = envCfg.Credentials
	cfg.OTelEndpoint = envCfg.OTelEndpoint
	if envCfg.Port != agent.DefaultConfig().Port {
		cfg.Port = envCfg.Port
	}
	if envCfg.IntervalSeconds != agent.DefaultConfig().IntervalSeconds {
		cfg.IntervalSeconds = envCfg.IntervalSeconds
	}
	if os.Getenv("DEMO_MODE") != "" {
		cfg.DemoMode = envCfg.DemoMode
	}
	if envCfg.DataDir != "" {
		cfg.DataDir = envCfg.DataDir
	}
	if envCfg.MaxCycles != 0 {
		cfg.MaxCycles = envCfg.MaxCycles
	}

	// Flags win over everything.
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("interval") {
		cfg.IntervalSeconds = intervalSeconds
	}
	if cmd.Flags().Changed("demo") {
		cfg.DemoMode = demoMode
	}
	if cmd.Flags().Changed("seed") {
		cfg.DemoSeed = demoSeed
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("max-cycles") {
		cfg.MaxCycles = maxCycles
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := agent.New(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Info("Starting guerrilla marketing agent",
		"version", Version,
		"port", cfg.Port,
		"demo_mode", cfg.DemoMode,
	)
	return svc.Run(ctx)
}
