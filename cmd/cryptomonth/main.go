package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "cryptomonth"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	var configPath string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "CryptoMonth market aggregator and weekly newsletter",
		Version: version,
		Long: `CryptoMonth aggregates 30-day price movers from CoinGecko,
CoinMarketCap and DexScreener into one deduplicated ranking, serves it
as a dashboard API and ships it as a weekly email newsletter.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newSendCmd(&configPath))
	rootCmd.AddCommand(newPreviewCmd(&configPath))
	rootCmd.AddCommand(newScheduleCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
