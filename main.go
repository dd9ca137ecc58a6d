package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/castaway-media/castaway/internal"
	"github.com/castaway-media/castaway/pkg/logger"
)

var log = logger.Get("Main")

// main() is the entry point to the program; it loads the user's
// Castaway configuration, constructs the server and runs it until
// it's interrupted.
func main() {
	configPath := flag.String("config", internal.DefaultConfigPath(), "path to the YAML configuration file")
	flag.Parse()

	config := internal.CastawayConfig{}
	if err := config.Load(*configPath); err != nil {
		log.Emit(logger.FATAL, "Failed to initialise Castaway - %s\n", err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := internal.New(config).Run(ctx); err != nil {
		log.Emit(logger.FATAL, "Castaway stopped - %s\n", err.Error())
		os.Exit(1)
	}
}
