// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/listing-engine/internal/catalog"
	"github.com/pdiddy/listing-engine/internal/collab"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the catalog similarity index from the shop",
	Long: `Sync pages through every product in the shop, embeds each title, and
upserts it into the similarity index. The idempotency guard and the
acquisition stage search this index; run sync after bulk catalog changes.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Int("page-size", 250, "products fetched per catalog page")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	pageSize, _ := cmd.Flags().GetInt("page-size")

	httpClient := &http.Client{Timeout: cfg.Scrape.Timeout}

	syncer := &catalog.Syncer{
		Lister: &collab.ShopifyClient{Config: cfg.Commerce, Client: httpClient},
		Embeddor: &collab.OpenAIEmbeddor{
			Config: cfg.Embedding,
			Model:  viper.GetString("embedding.model"),
			APIKey: secretDefault("openai-api-key", viper.GetString("embedding.api_key")),
			Client: httpClient,
		},
		Index: &collab.QdrantIndex{
			Config: cfg.Index,
			APIKey: secretDefault("qdrant-api-key", viper.GetString("index.api_key")),
			Client: httpClient,
		},
		Collection: cfg.Index.Collection,
		PageSize:   pageSize,
	}

	summary, err := syncer.Sync(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d product(s) failed to index", summary.Failed)
	}
	return nil
}
