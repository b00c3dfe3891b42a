package handlers

import (
	"context"
	"net/http"
	"time"

	"animesearch/internal/bot"

	"github.com/gin-gonic/gin"
)

const webhookTimeout = 30 * time.Second

// Webhook acknowledges Telegram updates right away and processes them in the
// background so that Telegram does not redeliver slow commands.
func Webhook(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		update, err := bot.ParseUpdate(c.Request)
		if err != nil {
			deps.Logger.WithError(err).Error("Error parsing request")
			c.String(http.StatusBadRequest, "Bad request")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)

		go func() {
			defer cancel()
			deps.Bot.ProcessMessage(ctx, update)
		}()

		c.String(http.StatusOK, "OK")
	}
}
