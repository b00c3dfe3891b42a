package services

import (
	"strings"

	"animesearch/internal/models"

	"github.com/samber/lo"
)

// Normalize converts a raw catalog record into an AnimeRecord. Optional
// fields the catalog left out get their documented defaults; episodes and
// score stay nil rather than becoming zero.
func Normalize(raw models.JikanAnime) models.AnimeRecord {
	rec := models.AnimeRecord{
		ID:        raw.MalId,
		Title:     raw.Title,
		ImageURL:  raw.Images.JPG.ImageURL,
		Episodes:  raw.Episodes,
		Score:     raw.Score,
		MediaType: models.UnknownMediaType,
		Status:    raw.Status,
		Genres: lo.Map(raw.Genres, func(g models.JikanGenre, _ int) models.Genre {
			return models.Genre{ID: g.MalId, Name: g.Name}
		}),
	}

	if raw.Synopsis != nil {
		rec.Synopsis = *raw.Synopsis
	}
	if raw.Type != nil && strings.TrimSpace(*raw.Type) != "" {
		rec.MediaType = *raw.Type
	}

	return rec
}

// NormalizeAll normalizes every element, preserving order. The result is
// never nil.
func NormalizeAll(raws []models.JikanAnime) []models.AnimeRecord {
	return lo.Map(raws, func(raw models.JikanAnime, _ int) models.AnimeRecord {
		return Normalize(raw)
	})
}
