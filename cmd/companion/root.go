package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mindmate/companion-api/internal/pkg/config"
	"github.com/mindmate/companion-api/pkg/logger"
)

const serviceName = "companion-api"

var rootCmd = &cobra.Command{
	Use:          "companion",
	Short:        "Wellness companion API server and operator tools",
	SilenceUsage: true,
}

// loadConfig reads configuration and initialises the process logger.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: serviceName,
	})
	return cfg, log, nil
}
