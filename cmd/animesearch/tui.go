package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"animesearch/internal/logger"
	"animesearch/internal/session"
	"animesearch/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Search interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Silence()
		log := logger.Get()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
		defer stop()

		store := session.NewStore(session.StoreConfig{
			Catalog:       catalogClient(),
			TrendingLimit: appConfig.Search.TrendingLimit,
			Debounce:      appConfig.Search.Debounce,
			Logger:        log,
		})
		sess := store.Create()
		defer store.Delete(sess.ID)

		return tui.Run(ctx, sess)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
