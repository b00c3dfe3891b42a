package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"animesearch/internal/container"
	"animesearch/internal/logger"
	"animesearch/internal/services"
	"animesearch/internal/tui"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog and print one page of results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		query := strings.Join(args, " ")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := catalogClient().Search(ctx, query, page)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(result.Records) == 0 {
			fmt.Fprintf(out, "No anime found for %q\n", query)
			return nil
		}
		fmt.Fprintf(out, "Results for %q (page %d)\n\n", query, result.Page)
		fmt.Fprintln(out, tui.List(result.Records, -1))
		if result.HasMore {
			fmt.Fprintf(out, "\nMore results: --page %d\n", result.Page+1)
		}
		return nil
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the current top-ranked anime",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		records, err := catalogClient().FetchTop(ctx, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Trending Anime Recommendations")
		fmt.Fprintln(out)
		fmt.Fprintln(out, tui.List(records, -1))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the full record for one anime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid anime id %q", args[0])
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		rec, err := catalogClient().FetchByID(ctx, id)
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("anime %d not found", id)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), tui.Detail(*rec, 80))
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("page", 1, "result page to fetch")
	topCmd.Flags().Int("limit", 10, "number of entries (max 25)")

	rootCmd.AddCommand(searchCmd, topCmd, showCmd)
}

// catalogClient builds an uncached client; one-shot commands do not need
// Redis or Postgres.
func catalogClient() *services.Client {
	return container.NewAnimeService(appConfig, logger.Get(), nil)
}
