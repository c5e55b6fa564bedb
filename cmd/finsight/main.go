package main

import (
	"os"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/cmd/finsight/cmd"

	"github.com/joho/godotenv"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Load GEMINI_API_KEY and friends from a local .env if present.
	_ = godotenv.Load()

	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.NewCLIErrorHandler().HandleError(err))
	}
}
