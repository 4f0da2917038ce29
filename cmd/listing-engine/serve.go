// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/listing-engine/internal/jobstore"
	"github.com/pdiddy/listing-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job front door and pipeline consumer",
	Long: `Serve accepts listing jobs over HTTP (POST /jobs), runs them one at a
time, and reports job status for polling (GET /jobs/{id}). Shutdown on
SIGINT/SIGTERM drains the in-flight job to a terminal status first.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("db", "", "job database path (default data/jobs.db)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Server.DBPath = db
	}

	store, err := jobstore.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("opening job store: %w", err)
	}
	defer store.Close()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	// Warn about jobs stranded by an unclean previous shutdown.
	pending, err := store.Pending(context.Background())
	if err != nil {
		return fmt.Errorf("checking pending jobs: %w", err)
	}
	for _, job := range pending {
		logger.Printf("warning: job %s was pending at last shutdown; resubmit it", job.RequestID)
	}

	srv := server.New(store, buildOrchestrator(cfg), cfg.Server.QueueSize, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
