package main

import (
	"os"

	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
