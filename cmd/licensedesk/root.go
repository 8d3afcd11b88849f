package main

import (
	"github.com/spf13/cobra"

	"github.com/tcardoso/licensedesk/internal/config"
)

var (
	flagDBPath string
	flagPort   string
)

var rootCmd = &cobra.Command{
	Use:   "licensedesk",
	Short: "License inventory service for IT administrators",
	Long: `licensedesk tracks software license pools, seat assignments,
Microsoft 365 plans and standalone licenses, and serves the dashboard
API over HTTP.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "path to the SQLite database file")
	rootCmd.PersistentFlags().StringVar(&flagPort, "port", "", "HTTP listen port")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(userCmd)
}

// loadConfig builds the service configuration from defaults, environment
// variables and command line flags, in ascending precedence
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagPort != "" {
		cfg.Port = flagPort
	}
	return cfg, nil
}
