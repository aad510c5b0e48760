package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "스토어 간 데이터 병합",
	Long: `현재 설정된 스토어의 데이터를 대상 백엔드로 병합합니다.
이미 존재하는 행은 덮어쓰지 않습니다 (insert-if-absent).

Example:
  go run ./cmd/alphastack migrate --target postgres
  go run ./cmd/alphastack migrate --target sqlite --target-path ./backup.db`,
	RunE: runMigrate,
}

var (
	migrateTarget     string
	migrateTargetPath string
	migrateTargetURL  string
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrateTarget, "target", "", "대상 드라이버 (sqlite|postgres)")
	migrateCmd.Flags().StringVar(&migrateTargetPath, "target-path", "", "대상 sqlite 파일 경로")
	migrateCmd.Flags().StringVar(&migrateTargetURL, "target-url", "", "대상 postgres URL")
	migrateCmd.MarkFlagRequired("target")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== AlphaStack Migrate ===")

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	src, err := store.New(cfg, log)
	if err != nil {
		return fmt.Errorf("open source store: %w", err)
	}
	defer src.Close()

	dstCfg := cfg.Database
	dstCfg.Driver = migrateTarget
	if migrateTargetPath != "" {
		dstCfg.Path = migrateTargetPath
	}
	if migrateTargetURL != "" {
		dstCfg.URL = migrateTargetURL
	}
	if dstCfg.Driver == cfg.Database.Driver && dstCfg.Path == cfg.Database.Path && dstCfg.URL == cfg.Database.URL {
		return fmt.Errorf("target store is the same as the source")
	}

	dstFullCfg := *cfg
	dstFullCfg.Database = dstCfg
	dst, err := store.New(&dstFullCfg, log)
	if err != nil {
		return fmt.Errorf("open target store: %w", err)
	}
	defer dst.Close()

	if err := dst.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize target store: %w", err)
	}

	fmt.Printf("\nMerging %s → %s\n", src.ConnString(), dst.ConnString())

	stats, err := dst.MergeFrom(ctx, src)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	fmt.Printf("\n✅ Merged: %d discoveries, %d scores, %d runs, %d decisions\n",
		stats.Discoveries, stats.Scores, stats.Runs, stats.Decisions)
	return nil
}
