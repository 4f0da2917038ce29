// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/listing-engine/internal/jobstore"
)

var statusCmd = &cobra.Command{
	Use:   "status <request_id>",
	Short: "Show the status of a submitted job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("db", "", "job database path (default data/jobs.db)")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Server.DBPath = db
	}

	store, err := jobstore.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("opening job store: %w", err)
	}
	defer store.Close()

	record, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no job %s", args[0])
	}

	fmt.Printf("job %s: %s\n", record.RequestID, record.Status)
	if record.TimeCompleted != nil {
		fmt.Printf("completed at %s\n", record.TimeCompleted.Format("2006-01-02 15:04:05 MST"))
	}
	if record.URL != "" {
		fmt.Printf("url: %s\n", record.URL)
	}
	if record.Error != "" {
		fmt.Printf("error: %s\n", record.Error)
	}
	return nil
}
