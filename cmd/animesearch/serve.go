package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"animesearch/internal/container"
	"animesearch/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session API server",
	Long: `Start the HTTP session API. When a Telegram bot token is configured the
webhook endpoint is served too.

Example:
  animesearch serve
  animesearch serve --port 9090`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	if host == "" {
		host = appConfig.Server.Host
	}
	if port == 0 {
		port = appConfig.Server.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, appConfig)
	if err != nil {
		return err
	}
	defer c.Close()
	log := c.Logger

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		c.Sessions.Run(sweeperCtx)
	}()

	if c.Bot != nil {
		if err := c.Bot.SetCommands(ctx); err != nil {
			log.WithError(err).Warn("Failed to register bot commands")
		}
	}

	deps := &handlers.Dependencies{
		Sessions: c.Sessions,
		Bot:      c.BotHandler,
		Logger:   log,
	}
	if c.Media != nil {
		deps.Media = c.Media
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: handlers.NewRouter(deps, appConfig.Server.CORSOrigins),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	log.Infof("Server starting on %s", srv.Addr)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case runErr = <-serverErr:
		log.WithError(runErr).Error("Server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		runErr = errors.Join(runErr, err)
	}

	stopSweeper()
	<-sweeperDone

	log.Info("Server gracefully stopped")
	return runErr
}
