package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "저장소 상태 요약 출력",
	Long: `저장소 백엔드와 테이블별 행 수를 출력합니다.

Example:
  go run ./cmd/alphastack status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== AlphaStack Status ===")

	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("\nStorage: %s (%s)\n", a.store.Type(), a.store.ConnString())

	for _, table := range []string{"discoveries", "discovery_scores", "scan_runs", "decisions"} {
		row, err := a.store.Get(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s", table))
		if err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		fmt.Printf("  %-18s %v rows\n", table, row["n"])
	}

	run, err := a.store.Get(ctx, "SELECT run_id, finished_at, item_count FROM scan_runs ORDER BY finished_at DESC LIMIT 1")
	if err != nil {
		return err
	}
	if run != nil {
		fmt.Printf("\nLast run: %v (%v items, finished %v)\n", run["run_id"], run["item_count"], run["finished_at"])
	} else {
		fmt.Println("\nNo scan runs yet")
	}

	return nil
}
