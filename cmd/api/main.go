package main

import (
	"context"
	"os"

	"github.com/eduserv/ledger/internal/pkg/logger"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
