package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"animesearch/internal/models"

	"github.com/sirupsen/logrus"
)

const tgAPIURL = "https://api.telegram.org/bot"

// Sender delivers replies to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
}

// Bot talks to the Telegram Bot API.
type Bot struct {
	Token      string
	Logger     *logrus.Logger
	apiURL     string
	httpClient *http.Client
}

func NewBot(token string, logger *logrus.Logger) *Bot {
	return &Bot{
		Token:      token,
		Logger:     logger,
		apiURL:     tgAPIURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendMessage sends an HTML formatted message.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	return b.call(ctx, "sendMessage", models.TelegramResponse{
		ChatId:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
}

// SendTyping shows the "typing..." indicator while a command is processed.
func (b *Bot) SendTyping(ctx context.Context, chatID int64) error {
	return b.call(ctx, "sendChatAction", models.ChatAction{
		ChatId: chatID,
		Action: "typing",
	})
}

// SetCommands publishes the command menu shown by Telegram clients.
func (b *Bot) SetCommands(ctx context.Context) error {
	payload := map[string]interface{}{
		"commands": commandMenu,
	}
	return b.call(ctx, "setMyCommands", payload)
}

func (b *Bot) call(ctx context.Context, method string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s%s/%s", b.apiURL, b.Token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TG API %s returned status %d", method, resp.StatusCode)
	}

	return nil
}

// ParseUpdate decodes an incoming webhook request body.
func ParseUpdate(r *http.Request) (*models.Update, error) {
	var update models.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		return nil, err
	}
	return &update, nil
}
