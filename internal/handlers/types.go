package handlers

import (
	"context"

	"animesearch/internal/bot"
	"animesearch/internal/models"
	"animesearch/internal/session"

	"github.com/sirupsen/logrus"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// MediaLister is the read side of the media mirror.
type MediaLister interface {
	List(ctx context.Context, limit int) ([]models.Media, error)
}

// Dependencies carries what the routes need. Media and Bot are optional.
type Dependencies struct {
	Sessions *session.Store
	Media    MediaLister
	Bot      *bot.Handler
	Logger   *logrus.Logger
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

type SelectRequest struct {
	Title string `json:"title" binding:"required"`
}

type LoadMoreResponse struct {
	Issued bool         `json:"issued"`
	View   session.View `json:"view"`
}

type MediaListResponse struct {
	Status string         `json:"status"`
	Media  []models.Media `json:"media"`
	Count  int            `json:"count"`
}
