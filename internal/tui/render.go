package tui

import (
	"fmt"
	"strings"

	"animesearch/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

// Row renders a one-line summary of rec.
func Row(rec models.AnimeRecord) string {
	parts := []string{rec.MediaType}
	if rec.Episodes != nil {
		parts = append(parts, fmt.Sprintf("%d eps", *rec.Episodes))
	}
	if rec.Score != nil {
		parts = append(parts, fmt.Sprintf("★ %.2f", *rec.Score))
	}
	return fmt.Sprintf("%s %s", rec.Title, faintStyle.Render("("+strings.Join(parts, ", ")+")"))
}

// List renders records one per line. cursor < 0 disables highlighting.
func List(records []models.AnimeRecord, cursor int) string {
	lines := lo.Map(records, func(rec models.AnimeRecord, i int) string {
		if i == cursor {
			return selectedStyle.Render("> ") + selectedStyle.Render(rec.Title) + " " + faintStyle.Render(fmt.Sprintf("#%d", rec.ID))
		}
		return "  " + Row(rec)
	})
	return strings.Join(lines, "\n")
}

// Detail renders every field of rec, wrapping the synopsis to width.
func Detail(rec models.AnimeRecord, width int) string {
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(boldStyle.Render(rec.Title))
	b.WriteString(" " + tagStyle.Render(rec.MediaType))
	b.WriteString("\n\n")

	episodes, score := "N/A", "N/A"
	if rec.Episodes != nil {
		episodes = fmt.Sprintf("%d", *rec.Episodes)
	}
	if rec.Score != nil {
		score = fmt.Sprintf("%.2f", *rec.Score)
	}
	b.WriteString(fmt.Sprintf("Episodes: %s\n", episodes))
	b.WriteString(fmt.Sprintf("Score:    %s\n", score))
	if rec.Status != "" {
		b.WriteString(fmt.Sprintf("Status:   %s\n", rec.Status))
	}
	if len(rec.Genres) > 0 {
		names := lo.Map(rec.Genres, func(g models.Genre, _ int) string { return g.Name })
		b.WriteString(fmt.Sprintf("Genres:   %s\n", strings.Join(names, ", ")))
	}
	if rec.ImageURL != "" {
		b.WriteString(faintStyle.Render(rec.ImageURL) + "\n")
	}

	if rec.Synopsis != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(rec.Synopsis))
		b.WriteString("\n")
	}

	b.WriteString("\n" + faintStyle.Render(fmt.Sprintf("https://myanimelist.net/anime/%d", rec.ID)))
	return b.String()
}
