package main

import (
	"fmt"
	"os"

	"animesearch/internal/config"
	"animesearch/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "animesearch",
	Short: "Anime catalog search backed by the Jikan API",
	Long: `animesearch searches the public Jikan anime catalog.

It can run as an HTTP session API with an optional Telegram bot webhook,
as an interactive terminal UI, or as one-shot commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func loadConfig() error {
	if appConfig != nil {
		return nil
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	appConfig = cfg
	return nil
}
