package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	verifyJSON    bool
	verifyTimeout time.Duration
	verifyNoWeb   bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a claim against the knowledge store",
	Long: `Verify checks a factual claim against the local knowledge store and,
when local evidence is insufficient, against web search.

Example:
  veracity verify "Water boils at 100C at sea level"
  veracity verify --json "The Great Wall is visible from space"
  veracity verify --no-web "Photosynthesis produces oxygen"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the result as JSON")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 3*time.Minute, "overall verification timeout")
	verifyCmd.Flags().BoolVar(&verifyNoWeb, "no-web", false, "disable the web search fallback")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claim := strings.TrimSpace(strings.Join(args, " "))
	if claim == "" {
		return fmt.Errorf("claim must not be empty")
	}

	cfg := loadConfig()
	if verifyNoWeb {
		cfg.Search.APIKey = ""
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	result, err := a.verifier.Verify(ctx, claim)
	if err != nil {
		return err
	}

	if verifyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	verdict := "REFUTED"
	if result.Verdict {
		verdict = "SUPPORTED"
	}
	fmt.Printf("Claim:    %s\n", result.Claim)
	fmt.Printf("Verdict:  %s\n", verdict)
	fmt.Printf("Evidence: %s\n", result.EvidenceSource)
	fmt.Printf("\n%s\n", result.Explanation)
	if len(result.SourceURLs) > 0 {
		fmt.Println("\nSources:")
		for _, u := range result.SourceURLs {
			fmt.Printf("  - %s\n", u)
		}
	}
	return nil
}
