package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "재스코어링 워커 시작 (API 없음)",
	Long: `주기적 재스코어링 루프만 실행합니다.

이 명령어는:
- 즉시 1회 패스 실행
- 설정된 주기(기본 3분)마다 반복
- 실행 중 도착한 틱은 드롭 (큐잉하지 않음)

Example:
  go run ./cmd/alphastack worker`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	fmt.Println("=== AlphaStack Enrichment Worker ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	fmt.Printf("\n✅ Worker running, interval %s\n", a.cfg.Enrichment.Interval)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.scheduler.Stop()
	a.log.Info("Worker stopped")
	return nil
}
