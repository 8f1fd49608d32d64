package main

import (
	"os"

	"github.com/cognicore/nlpingest/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Get().Error(err)
		os.Exit(1)
	}
}
