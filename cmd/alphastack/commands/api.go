package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작 (스케줄러 없음)",
	Long: `REST API 서버만 시작합니다. 백그라운드 재스코어링은 실행하지 않습니다.

Endpoints:
  GET  /health                        - Health check
  POST /api/discoveries               - 디스커버리 수집
  GET  /api/discoveries/latest        - 최신 디스커버리 조회
  POST /api/decisions/generate        - 디시전 생성 (admin)
  GET  /api/decisions/latest          - 오픈 디시전 조회
  POST /api/fills                     - 체결 웹훅
  GET  /api/rules                     - 티커 규칙 조회
  GET  /api/status                    - 진단 정보

Example:
  go run ./cmd/alphastack api
  go run ./cmd/alphastack api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== AlphaStack API Server ===")

	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	server := a.router()

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
