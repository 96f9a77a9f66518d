// Command streampayd runs the streampay ledger daemon in the foreground.
// It is the standalone counterpart to `streampay daemon`, intended for
// service managers that want a dedicated daemon binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"streampay/internal/config"
	"streampay/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	development := flag.Bool("development", false, "enable development logging output")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:    *logLevel,
		Development: *development,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "streampayd: %v\n", err)
		os.Exit(1)
	}
}
