package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"

	"animesearch/internal/models"

	"github.com/samber/lo"
)

const (
	synopsisPreview = 200
	detailSynopsis  = 3000

	// maxMessageLength is Telegram's limit for one message, in UTF-16 units.
	maxMessageLength = 4096
)

// FormatAnimeList renders records as a numbered HTML list, split into as
// many messages as needed to stay under the Telegram length limit. Numbering
// starts at offset+1 so that appended pages continue the count. A non-empty
// footer ends the last message.
func FormatAnimeList(heading string, animes []models.AnimeRecord, offset int, footer string) []string {
	if len(animes) == 0 {
		return []string{"No anime found for your search query."}
	}

	entries := lo.Map(animes, func(anime models.AnimeRecord, i int) string {
		return formatListEntry(anime, offset+i+1)
	})
	return packMessages(fmt.Sprintf("<b>%s</b>\n\n", html.EscapeString(heading)), entries, footer)
}

func formatListEntry(anime models.AnimeRecord, n int) string {
	var entry strings.Builder
	entry.WriteString(fmt.Sprintf("<b>%d. %s</b>\n", n, html.EscapeString(anime.Title)))
	writeFacts(&entry, anime)

	if anime.Synopsis != "" {
		entry.WriteString(fmt.Sprintf("Synopsis: %s\n", html.EscapeString(truncate(anime.Synopsis, synopsisPreview))))
	}

	entry.WriteString(fmt.Sprintf("Details: /anime %d\n\n", anime.ID))
	return entry.String()
}

// packMessages concatenates head, entries and footer, starting a new message
// whenever the next piece would push the current one over the limit. Entries
// are never split.
func packMessages(head string, entries []string, footer string) []string {
	var messages []string
	current := head

	appendPiece := func(piece string) {
		if current != "" && messageLength(current)+messageLength(piece) > maxMessageLength {
			messages = append(messages, current)
			current = ""
		}
		current += piece
	}

	for _, entry := range entries {
		appendPiece(entry)
	}
	if footer != "" {
		appendPiece(footer)
	}

	return append(messages, current)
}

// messageLength counts UTF-16 units of the raw text, markup included, which
// is never less than what Telegram counts after parsing.
func messageLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// FormatAnimeDetail renders one record in full, with the synopsis capped so
// the message stays under the length limit.
func FormatAnimeDetail(anime models.AnimeRecord) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("<b>%s</b>\n\n", html.EscapeString(anime.Title)))
	writeFacts(&message, anime)

	if anime.Synopsis != "" {
		message.WriteString(fmt.Sprintf("\n%s\n", html.EscapeString(truncate(anime.Synopsis, detailSynopsis))))
	}

	message.WriteString(fmt.Sprintf("\n<a href=\"https://myanimelist.net/anime/%d\">View on MyAnimeList</a>", anime.ID))
	return message.String()
}

func writeFacts(message *strings.Builder, anime models.AnimeRecord) {
	if anime.Score != nil {
		message.WriteString(fmt.Sprintf("Score: %.2f\n", *anime.Score))
	}
	if anime.Episodes != nil {
		message.WriteString(fmt.Sprintf("Episodes: %d\n", *anime.Episodes))
	}
	message.WriteString(fmt.Sprintf("Type: %s\n", html.EscapeString(anime.MediaType)))
	if anime.Status != "" {
		message.WriteString(fmt.Sprintf("Status: %s\n", html.EscapeString(anime.Status)))
	}
	if len(anime.Genres) > 0 {
		names := lo.Map(anime.Genres, func(g models.Genre, _ int) string { return g.Name })
		message.WriteString(fmt.Sprintf("Genres: %s\n", html.EscapeString(strings.Join(names, ", "))))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
