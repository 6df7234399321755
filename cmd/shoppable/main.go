package main

import (
	"os"

	"github.com/ivlev/shoppable/internal/config"
)

func main() {
	cfg := config.Load()
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
