package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"animesearch/internal/models"
	"animesearch/internal/services"
	"animesearch/internal/session"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu       sync.Mutex
	messages []sentMessage
	typing   int
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) SendTyping(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return nil
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type fakeCatalog struct{}

func (fakeCatalog) Search(_ context.Context, query string, page int) (*models.SearchPage, error) {
	switch query {
	case "nothing":
		return &models.SearchPage{Records: []models.AnimeRecord{}, Page: page}, nil
	case "broken":
		return nil, fmt.Errorf("%w: status 500", services.ErrRequestFailed)
	case "gundam":
		return &models.SearchPage{Records: wordyRecords(12), Page: page, HasMore: true}, nil
	}
	return &models.SearchPage{
		Records: []models.AnimeRecord{{ID: 100 + page, Title: query + " part " + string(rune('0'+page)), MediaType: "TV"}},
		Page:    page,
		HasMore: page < 2,
	}, nil
}

func (fakeCatalog) FetchByID(_ context.Context, id int) (*models.AnimeRecord, error) {
	if id != 20 {
		return nil, services.ErrNotFound
	}
	return &models.AnimeRecord{ID: 20, Title: "Naruto", MediaType: "TV", Synopsis: "Ninja <kids>."}, nil
}

func (fakeCatalog) FetchTop(context.Context, int) ([]models.AnimeRecord, error) {
	return []models.AnimeRecord{{ID: 52991, Title: "Sousou no Frieren", MediaType: "TV"}}, nil
}

// wordyRecords builds n records shaped like real catalog entries: long
// titles, several genres and a synopsis well past the preview length.
func wordyRecords(n int) []models.AnimeRecord {
	score := 8.12
	episodes := 50
	synopsis := strings.Repeat("In the year 0079 the colony drops and the war drags on for months. ", 6)

	records := make([]models.AnimeRecord, n)
	for i := range records {
		records[i] = models.AnimeRecord{
			ID:        1000 + i,
			Title:     fmt.Sprintf("Mobile Suit Gundam: The Witch from Mercury %d", i),
			Score:     &score,
			Episodes:  &episodes,
			MediaType: "TV",
			Status:    "Finished Airing",
			Synopsis:  synopsis,
			Genres: []models.Genre{
				{ID: 1, Name: "Action"}, {ID: 18, Name: "Mecha"}, {ID: 24, Name: "Sci-Fi"},
			},
		}
	}
	return records
}

func newTestHandler() (*Handler, *fakeSender) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := session.NewStore(session.StoreConfig{
		Catalog:  fakeCatalog{},
		Debounce: 10 * time.Millisecond,
		Logger:   log,
	})
	sender := &fakeSender{}
	return NewHandler(store, sender, log), sender
}

func update(chatID int64, text string) *models.Update {
	return &models.Update{
		Message: models.Message{
			Text: text,
			Chat: models.Chat{Id: chatID},
			From: models.User{Id: 7, FirstName: "Test"},
		},
	}
}

// waitIdle waits for the chat's background trending fetch to settle.
func waitIdle(t *testing.T, h *Handler, chatID int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !h.chatSession(chatID).View().State.Loading
	}, time.Second, 5*time.Millisecond)
}

func TestHandler_ParseCommand(t *testing.T) {
	h, _ := newTestHandler()

	tests := []struct {
		text    string
		command string
		args    []string
	}{
		{"/search Cowboy Bebop", "/search", []string{"Cowboy", "Bebop"}},
		{"/SEARCH@anime_bot naruto", "/search", []string{"naruto"}},
		{"/top", "/top", []string{}},
		{"hello", "hello", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := h.parseCommand(tt.text, "7", 1)
			assert.Equal(t, tt.command, cmd.Command)
			assert.Equal(t, tt.args, cmd.Args)
			assert.Equal(t, int64(1), cmd.ChatID)
		})
	}
}

func TestHandler_ProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("start sends welcome", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/start"))
		assert.Equal(t, welcomeMessage, sender.last(t).Text)
	})

	t.Run("empty text is ignored", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, ""))
		assert.Empty(t, sender.messages)
	})

	t.Run("unknown command", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/dance"))
		assert.Contains(t, sender.last(t).Text, "Unknown command")
	})

	t.Run("search without args", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/search"))
		assert.Contains(t, sender.last(t).Text, "Please provide an anime name")
	})

	t.Run("search then more", func(t *testing.T) {
		h, sender := newTestHandler()

		h.ProcessMessage(ctx, update(1, "/search bebop"))
		waitIdle(t, h, 1)
		msg := sender.last(t)
		assert.Equal(t, int64(1), msg.ChatID)
		assert.Contains(t, msg.Text, "1. bebop part 1")
		assert.Contains(t, msg.Text, "/more")

		h.ProcessMessage(ctx, update(1, "/more"))
		msg = sender.last(t)
		assert.Contains(t, msg.Text, "Page 2:")
		assert.Contains(t, msg.Text, "2. bebop part 2")
		assert.NotContains(t, msg.Text, "part 1")

		h.ProcessMessage(ctx, update(1, "/more"))
		assert.Equal(t, "No more results.", sender.last(t).Text)
		assert.Positive(t, sender.typing)
	})

	t.Run("long page is split under the message limit", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/search gundam"))

		sender.mu.Lock()
		defer sender.mu.Unlock()
		require.Greater(t, len(sender.messages), 1)

		var all strings.Builder
		for _, msg := range sender.messages {
			assert.LessOrEqual(t, messageLength(msg.Text), maxMessageLength)
			all.WriteString(msg.Text)
		}
		for i := 0; i < 12; i++ {
			assert.Contains(t, all.String(), fmt.Sprintf("Details: /anime %d", 1000+i))
		}
		assert.True(t, strings.HasPrefix(sender.messages[0].Text, "<b>Anime Search Results:</b>"))
		assert.True(t, strings.HasSuffix(sender.messages[len(sender.messages)-1].Text, "More results: /more"))
	})

	t.Run("search failure uses fixed message", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/search broken"))
		assert.Equal(t, "failed to fetch anime. Please try again later.", sender.last(t).Text)
	})

	t.Run("no results", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/search nothing"))
		assert.Equal(t, "No anime found for your search query.", sender.last(t).Text)
	})

	t.Run("more without search", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/more"))
		assert.Contains(t, sender.last(t).Text, "Nothing to continue")
	})

	t.Run("top", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/top"))
		assert.Contains(t, sender.last(t).Text, "Sousou no Frieren")
	})

	t.Run("anime detail escapes html", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/anime 20"))
		text := sender.last(t).Text
		assert.Contains(t, text, "<b>Naruto</b>")
		assert.Contains(t, text, "Ninja &lt;kids&gt;.")
		assert.Contains(t, text, "https://myanimelist.net/anime/20")
	})

	t.Run("anime not found", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/anime 999999"))
		assert.Equal(t, "failed to fetch anime details.", sender.last(t).Text)
	})

	t.Run("anime bad id", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/anime abc"))
		assert.Equal(t, "Anime id must be a positive number.", sender.last(t).Text)
	})

	t.Run("chats have separate sessions", func(t *testing.T) {
		h, sender := newTestHandler()
		h.ProcessMessage(ctx, update(1, "/search bebop"))
		h.ProcessMessage(ctx, update(2, "/more"))

		msg := sender.last(t)
		assert.Equal(t, int64(2), msg.ChatID)
		assert.Contains(t, msg.Text, "Nothing to continue")
	})
}

func TestFormatAnimeList(t *testing.T) {
	score := 8.75
	episodes := 26
	long := strings.Repeat("a", 250)

	messages := FormatAnimeList("Results & more", []models.AnimeRecord{
		{ID: 1, Title: "Cowboy Bebop", Score: &score, Episodes: &episodes, MediaType: "TV", Synopsis: long,
			Genres: []models.Genre{{ID: 1, Name: "Action"}, {ID: 24, Name: "Sci-Fi"}}},
	}, 12, "More results: /more")
	require.Len(t, messages, 1)
	text := messages[0]

	assert.Contains(t, text, "<b>Results &amp; more</b>")
	assert.Contains(t, text, "<b>13. Cowboy Bebop</b>")
	assert.Contains(t, text, "Score: 8.75")
	assert.Contains(t, text, "Episodes: 26")
	assert.Contains(t, text, "Genres: Action, Sci-Fi")
	assert.Contains(t, text, strings.Repeat("a", 200)+"...")
	assert.NotContains(t, text, strings.Repeat("a", 201))
	assert.Contains(t, text, "Details: /anime 1")
	assert.True(t, strings.HasSuffix(text, "More results: /more"))
}

func TestFormatAnimeList_SplitsLongPages(t *testing.T) {
	records := wordyRecords(25)
	messages := FormatAnimeList("Trending Anime:", records, 0, "")

	require.Greater(t, len(messages), 1)
	next := 1
	for _, msg := range messages {
		assert.LessOrEqual(t, messageLength(msg), maxMessageLength)
		// Entries are kept whole and in order across messages.
		for strings.Contains(msg, fmt.Sprintf("<b>%d. ", next)) {
			next++
		}
	}
	assert.Equal(t, len(records)+1, next)
}

func TestFormatAnimeList_CountsUTF16Units(t *testing.T) {
	// Each emoji is one rune but two UTF-16 units.
	title := strings.Repeat("🎌", 150)
	records := make([]models.AnimeRecord, 20)
	for i := range records {
		records[i] = models.AnimeRecord{ID: i + 1, Title: title, MediaType: "TV"}
	}

	for _, msg := range FormatAnimeList("Results", records, 0, "") {
		assert.LessOrEqual(t, messageLength(msg), maxMessageLength)
	}
}

func TestFormatAnimeDetail_CapsSynopsis(t *testing.T) {
	text := FormatAnimeDetail(models.AnimeRecord{
		ID:        1,
		Title:     "Legend of the Galactic Heroes",
		MediaType: "OVA",
		Synopsis:  strings.Repeat("b", 10000),
	})

	assert.LessOrEqual(t, messageLength(text), maxMessageLength)
	assert.Contains(t, text, strings.Repeat("b", detailSynopsis)+"...")
	assert.NotContains(t, text, strings.Repeat("b", detailSynopsis+1))
	assert.Contains(t, text, "https://myanimelist.net/anime/1")
}

func TestFormatAnimeDetail_MissingFields(t *testing.T) {
	text := FormatAnimeDetail(models.AnimeRecord{ID: 5, Title: "X", MediaType: models.UnknownMediaType})

	assert.NotContains(t, text, "Score:")
	assert.NotContains(t, text, "Episodes:")
	assert.Contains(t, text, "Type: Unknown")
}
