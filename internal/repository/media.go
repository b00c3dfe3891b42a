package repository

import (
	"context"
	"fmt"

	"animesearch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MediaRepository mirrors catalog records that users opened.
type MediaRepository interface {
	Upsert(ctx context.Context, rec models.AnimeRecord) error
	List(ctx context.Context, limit int) ([]models.Media, error)
}

type mediaRepository struct {
	db *pgxpool.Pool
}

func NewMediaRepository(db *pgxpool.Pool) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Upsert(ctx context.Context, rec models.AnimeRecord) error {
	m := models.MediaFromRecord(rec)

	query := `
	INSERT INTO media (external_id, title, type, description, poster_url, rating, episodes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	ON CONFLICT (external_id) DO UPDATE
	SET title = EXCLUDED.title,
		type = EXCLUDED.type,
		description = EXCLUDED.description,
		poster_url = EXCLUDED.poster_url,
		rating = EXCLUDED.rating,
		episodes = EXCLUDED.episodes,
		updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, m.ExternalID, m.Title, m.Type, m.Description, m.PosterURL, m.Rating, m.Episodes)
	if err != nil {
		return fmt.Errorf("failed to upsert media %s: %w", m.ExternalID, err)
	}
	return nil
}

// List returns the most recently updated rows first.
func (r *mediaRepository) List(ctx context.Context, limit int) ([]models.Media, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, external_id, title, type, description, poster_url, rating, episodes, created_at, updated_at
	FROM media
	ORDER BY updated_at DESC
	LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}

	media, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Media])
	if err != nil {
		return nil, fmt.Errorf("failed to scan media rows: %w", err)
	}
	return media, nil
}
