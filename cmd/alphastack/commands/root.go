package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alphastack",
	Short: "AlphaStack - 종목 발굴 스코어링 백엔드",
	Long: `AlphaStack Unified CLI

스크리너 디스커버리 수집부터 주기적 재스코어링, 트레이드 디시전 생성까지.

Usage:
  go run ./cmd/alphastack [command]

Examples:
  go run ./cmd/alphastack start
  go run ./cmd/alphastack api
  go run ./cmd/alphastack scan
  go run ./cmd/alphastack migrate --target postgres`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
