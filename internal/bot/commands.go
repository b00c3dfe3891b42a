package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"animesearch/internal/models"
	"animesearch/internal/services"
	"animesearch/internal/session"
	"animesearch/internal/state"

	"github.com/sirupsen/logrus"
)

var commandMenu = []models.BotCommandMenu{
	{Command: "start", Description: "Start the bot and see the welcome message"},
	{Command: "search", Description: "Search for anime by name"},
	{Command: "more", Description: "Load the next page of results"},
	{Command: "top", Description: "Show trending anime"},
	{Command: "anime", Description: "Show details for an anime id"},
	{Command: "reset", Description: "Clear the current search"},
	{Command: "help", Description: "Show help and available commands"},
}

const welcomeMessage = `Welcome to Anime Search!

/search name_of_anime - search the catalog
/more - next page of the last search
/top - trending anime
/anime id - details for one title
/reset - clear the current search`

const moreFooter = "More results: /more"

type BotCommand struct {
	Command string
	Args    []string
	UserID  string
	ChatID  int64
}

// Handler maps chat commands onto session intents. Every chat gets its own
// session.
type Handler struct {
	sessions *session.Store
	sender   Sender
	logger   *logrus.Logger
}

func NewHandler(sessions *session.Store, sender Sender, logger *logrus.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		sender:   sender,
		logger:   logger,
	}
}

func (h *Handler) ProcessMessage(ctx context.Context, update *models.Update) {
	if update.Message.Text == "" {
		return
	}

	userID := strconv.FormatInt(update.Message.From.Id, 10)
	text := strings.TrimSpace(update.Message.Text)

	command := h.parseCommand(text, userID, update.Message.Chat.Id)
	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"chat_id": command.ChatID,
		"command": command.Command,
		"args":    command.Args,
	}).Info("Processing command")

	switch command.Command {
	case "/start", "/help":
		h.sendMessage(ctx, command.ChatID, welcomeMessage)
	case "/search":
		h.handleSearch(ctx, command)
	case "/more":
		h.handleMore(ctx, command)
	case "/top":
		h.handleTop(ctx, command)
	case "/anime":
		h.handleAnime(ctx, command)
	case "/reset":
		h.chatSession(command.ChatID).Reset()
		h.sendMessage(ctx, command.ChatID, "Search cleared.")
	default:
		h.sendMessage(ctx, command.ChatID, "Unknown command. Use /help to see available commands")
	}
}

// parseCommand splits text into command and arguments. A "/cmd@botname"
// suffix, as sent in group chats, is dropped.
func (h *Handler) parseCommand(text, userID string, chatID int64) BotCommand {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return BotCommand{UserID: userID, ChatID: chatID}
	}

	command := parts[0]
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}

	return BotCommand{
		Command: strings.ToLower(command),
		Args:    parts[1:],
		UserID:  userID,
		ChatID:  chatID,
	}
}

func (h *Handler) chatSession(chatID int64) *session.Session {
	return h.sessions.GetOrCreate(fmt.Sprintf("tg:%d", chatID))
}

func (h *Handler) handleSearch(ctx context.Context, cmd BotCommand) {
	if len(cmd.Args) == 0 {
		h.sendMessage(ctx, cmd.ChatID, "Please provide an anime name to search. Example: /search Naruto")
		return
	}

	query := strings.Join(cmd.Args, " ")
	h.sendTyping(ctx, cmd.ChatID)

	sess := h.chatSession(cmd.ChatID)
	err := sess.Search(ctx, query)
	switch {
	case errors.Is(err, services.ErrRequestCancelled):
		// a newer command for this chat took over
		return
	case err != nil:
		h.sendMessage(ctx, cmd.ChatID, state.ErrMsgSearch+". Please try again later.")
		return
	}

	view := sess.View()
	footer := ""
	if view.State.HasMore && len(view.State.SearchResults) > 0 {
		footer = moreFooter
	}
	h.sendMessages(ctx, cmd.ChatID, FormatAnimeList("Anime Search Results:", view.State.SearchResults, 0, footer))
}

func (h *Handler) handleMore(ctx context.Context, cmd BotCommand) {
	sess := h.chatSession(cmd.ChatID)
	before := sess.View().State

	if sess.Query() == "" {
		h.sendMessage(ctx, cmd.ChatID, "Nothing to continue. Start with /search name_of_anime")
		return
	}

	h.sendTyping(ctx, cmd.ChatID)
	issued, err := sess.LoadMore(ctx)
	switch {
	case !issued && !before.HasMore:
		h.sendMessage(ctx, cmd.ChatID, "No more results.")
		return
	case !issued:
		h.sendMessage(ctx, cmd.ChatID, "Still loading, try again in a moment.")
		return
	case errors.Is(err, services.ErrRequestCancelled):
		return
	case err != nil:
		h.sendMessage(ctx, cmd.ChatID, state.ErrMsgSearch+". Please try again later.")
		return
	}

	after := sess.View().State
	offset := len(before.SearchResults)
	if offset > len(after.SearchResults) {
		offset = 0
	}
	footer := ""
	if after.HasMore {
		footer = moreFooter
	}
	h.sendMessages(ctx, cmd.ChatID, FormatAnimeList(fmt.Sprintf("Page %d:", after.CurrentPage), after.SearchResults[offset:], offset, footer))
}

func (h *Handler) handleTop(ctx context.Context, cmd BotCommand) {
	h.sendTyping(ctx, cmd.ChatID)

	sess := h.chatSession(cmd.ChatID)
	if err := sess.RefreshTrending(ctx); err != nil {
		h.sendMessage(ctx, cmd.ChatID, state.ErrMsgTrending+". Please try again later.")
		return
	}

	h.sendMessages(ctx, cmd.ChatID, FormatAnimeList("Trending Anime:", sess.View().State.Trending, 0, ""))
}

func (h *Handler) handleAnime(ctx context.Context, cmd BotCommand) {
	if len(cmd.Args) == 0 {
		h.sendMessage(ctx, cmd.ChatID, "Please provide an anime id. Example: /anime 20")
		return
	}

	id, err := strconv.Atoi(cmd.Args[0])
	if err != nil || id <= 0 {
		h.sendMessage(ctx, cmd.ChatID, "Anime id must be a positive number.")
		return
	}

	h.sendTyping(ctx, cmd.ChatID)

	sess := h.chatSession(cmd.ChatID)
	if err := sess.NavigateToDetail(ctx, id); err != nil {
		h.sendMessage(ctx, cmd.ChatID, state.ErrMsgDetail+".")
		return
	}

	selected := sess.View().State.Selected
	if selected == nil {
		h.sendMessage(ctx, cmd.ChatID, "No details available.")
		return
	}
	h.sendMessage(ctx, cmd.ChatID, FormatAnimeDetail(*selected))
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) sendMessages(ctx context.Context, chatID int64, messages []string) {
	for _, text := range messages {
		h.sendMessage(ctx, chatID, text)
	}
}

func (h *Handler) sendTyping(ctx context.Context, chatID int64) {
	if err := h.sender.SendTyping(ctx, chatID); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Debug("Failed to send typing action")
	}
}
