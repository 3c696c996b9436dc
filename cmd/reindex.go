package cmd

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/index"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/progress"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from the content API",
	Long: `Fetches all FAQs and documents from the content API, chunks them,
and rebuilds the local vector collection from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err == nil {
			log.Printf("loaded environment from .env")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		debugf("chunking: size=%d overlap=%d workers=%d",
			cfg.Chunk.Size, cfg.Chunk.Overlap, cfg.MaxConcurrency)

		reporter := progress.NewReporter()
		started := false
		onProgress := index.ProgressFunc(func(done, total int, label string) {
			if !started {
				reporter.Start(total)
				started = true
			}
			reporter.Update(done, label)
		})

		manager, _, err := buildManager(cfg, onProgress)
		if err != nil {
			return err
		}

		if err := manager.Initialize(cmd.Context(), true); err != nil {
			return fmt.Errorf("rebuilding vector index: %w", err)
		}
		reporter.Finish()

		count, err := manager.Count()
		if err != nil {
			return err
		}
		fmt.Printf("Vector index rebuilt: %d chunks\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
