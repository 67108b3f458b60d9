package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ingestTimeout time.Duration

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load text documents into the knowledge store",
	Long: `Ingest recursively loads .txt and .md files from a directory, splits
them into overlapping chunks and writes them into the knowledge store.
Without an argument the configured data directory is used.

Example:
  veracity ingest ./data
  veracity ingest`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "ingestion timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	dir := cfg.Ingest.DataDir
	if len(args) == 1 {
		dir = args[0]
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	count, err := a.IngestDir(ctx, dir)
	if err != nil {
		return err
	}

	if count == 0 {
		fmt.Printf("No documents found in %s\n", dir)
		return nil
	}
	fmt.Printf("Ingested %d chunks from %s (store now holds %d)\n", count, dir, a.store.Len())
	return nil
}
