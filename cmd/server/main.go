// Command server runs the project archive API.
package main

import (
	"os"

	"github.com/iliyamo/project-archive/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}
