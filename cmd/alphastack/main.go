package main

import (
	"os"

	"github.com/alphastack/backend/cmd/alphastack/commands"
)

// main is the entry point for the AlphaStack CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/alphastack [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
