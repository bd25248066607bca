// Command anomaly trains per-column outlier detectors on a daily series and
// scores new observations interactively.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/internal/anomaly"
	"github.com/aicanalytics/gptmenu/internal/menu"
	"github.com/aicanalytics/gptmenu/utils"
)

func main() {
	var (
		envFiles []string
		seed     int64
		logLevel string
	)
	pflag.StringSliceVar(&envFiles, "env-file", nil, "Environment files to load (default .env)")
	pflag.Int64Var(&seed, "seed", 0, "Random seed; 0 seeds from the clock")
	pflag.StringVar(&logLevel, "log-level", "", "Log level (off, error, warn, info, debug)")
	pflag.Parse()

	cfg, err := config.LoadAnomalyConfig(envFiles...)
	if err != nil {
		exitWithError("Error: %v\n", err)
	}
	if pflag.CommandLine.Changed("seed") {
		cfg.Seed = seed
	}
	if logLevel != "" {
		level, err := utils.ParseLogLevel(logLevel)
		if err != nil {
			exitWithError("Error: %v\n", err)
		}
		cfg.LogLevel = level
	}
	logger := utils.NewLogger(cfg.LogLevel)

	driver := anomaly.NewDriver(cfg, menu.NewConsole(os.Stdin, os.Stdout), anomaly.WithLogger(logger))
	if err := driver.Run(context.Background()); err != nil {
		exitWithError("Error: %v\n", err)
	}
}

func exitWithError(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
