package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "재스코어링 패스 1회 실행",
	Long: `저장된 모든 디스커버리에 대해 재스코어링 패스를 한 번 실행하고 종료합니다.

Example:
  go run ./cmd/alphastack scan`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== AlphaStack Scan ===")

	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.enricher.Run(ctx)
	if err != nil {
		return fmt.Errorf("enrichment pass failed: %w", err)
	}

	fmt.Printf("\n✅ Run %s: %d items scored (%d fetched, %d failed) in %s\n",
		result.RunID, result.Items, result.Fetched, result.Failed, result.Took)
	return nil
}
