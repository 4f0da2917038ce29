// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/listing-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [request.yaml]",
	Short: "Run one listing pipeline synchronously",
	Long: `Run executes a single pipeline from a request file and prints the
outcome. The request file holds the free-form query and the
operator-authoritative variants:

    query: "list the 5lb chocolate Gold Standard whey"
    variants:
      - options:
          - {name: Size, value: 5lb}
          - {name: Flavour, value: Chocolate}
        sku: 523525
        barcode: "321542352"
        price: "59.95"
        weight: 2.27`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}
	var req types.ListingRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}

	orch := buildOrchestrator(loadConfig())

	state, err := orch.Run(context.Background(), "", req, os.Stdout)
	if err != nil {
		return err
	}

	switch state.Status {
	case types.StatusShortCircuited:
		fmt.Printf("existing product %q, nothing created\n", state.ShortCircuit.ProductName)
	case types.StatusCompleted:
		fmt.Printf("created %s\n", state.Publish.ExternalURL)
		if !state.Publish.InventoryFilled {
			fmt.Println("warning: some inventory levels were not set")
		}
	}
	return nil
}
