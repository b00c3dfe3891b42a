package models

import (
	"strconv"
	"time"
)

// Media is a catalog record mirrored into the media table.
type Media struct {
	ID          int       `json:"id" db:"id"`
	ExternalID  string    `json:"external_id" db:"external_id"`
	Title       string    `json:"title" db:"title"`
	Type        string    `json:"type" db:"type"`
	Description *string   `json:"description" db:"description"`
	PosterURL   *string   `json:"poster_url" db:"poster_url"`
	Rating      *float64  `json:"rating" db:"rating"`
	Episodes    *int      `json:"episodes" db:"episodes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MediaFromRecord maps an AnimeRecord onto a media row. Empty strings are
// stored as NULL.
func MediaFromRecord(rec AnimeRecord) Media {
	m := Media{
		ExternalID: strconv.Itoa(rec.ID),
		Title:      rec.Title,
		Type:       rec.MediaType,
		Rating:     rec.Score,
		Episodes:   rec.Episodes,
	}
	if rec.Synopsis != "" {
		synopsis := rec.Synopsis
		m.Description = &synopsis
	}
	if rec.ImageURL != "" {
		poster := rec.ImageURL
		m.PosterURL = &poster
	}
	return m
}
