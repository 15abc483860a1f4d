package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	Version   string
	BuildTime string
)

var (
	configPath string
	logLevel   string
	jsonLogs   bool
)

var rootCmd = &cobra.Command{
	Use:   "opcout",
	Short: "opcout streams LED frames to Open Pixel Control servers",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func setupLogging() error {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if !jsonLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	return nil
}

func Execute() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug | info | warn | error")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log JSON lines instead of console output")

	rootCmd.AddCommand(runCmd, sinkCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
