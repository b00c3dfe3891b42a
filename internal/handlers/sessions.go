package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"animesearch/internal/session"

	"github.com/gin-gonic/gin"
)

// Operation failures are part of the view (state.error); the HTTP status
// only reflects whether the intent itself was well formed.

func CreateSession(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := deps.Sessions.Create()
		c.JSON(http.StatusCreated, sess.View())
	}
}

func GetSession(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		c.JSON(http.StatusOK, sess.View())
	})
}

func DeleteSession(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !deps.Sessions.Delete(c.Param("id")) {
			sessionNotFound(c)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// SetQuery is the keystroke intent; the search itself runs after the quiet
// period, so the response is 202.
func SetQuery(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		var req QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format", err)
			return
		}

		sess.SetQuery(req.Query)
		c.JSON(http.StatusAccepted, sess.View())
	})
}

func Search(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format", err)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			badRequest(c, "Search query is required", nil)
			return
		}

		_ = sess.Search(c.Request.Context(), req.Query)
		c.JSON(http.StatusOK, sess.View())
	})
}

func LoadMore(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		issued, _ := sess.LoadMore(c.Request.Context())
		c.JSON(http.StatusOK, LoadMoreResponse{
			Issued: issued,
			View:   sess.View(),
		})
	})
}

func SelectSuggestion(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		var req SelectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format", err)
			return
		}

		sess.SelectSuggestion(req.Title)
		c.JSON(http.StatusAccepted, sess.View())
	})
}

func ResetSearch(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		sess.Reset()
		c.JSON(http.StatusOK, sess.View())
	})
}

func RefreshTrending(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		_ = sess.RefreshTrending(c.Request.Context())
		c.JSON(http.StatusOK, sess.View())
	})
}

func NavigateToDetail(deps *Dependencies) gin.HandlerFunc {
	return withSession(deps, func(c *gin.Context, sess *session.Session) {
		id, err := strconv.Atoi(c.Param("animeId"))
		if err != nil || id <= 0 {
			badRequest(c, "Anime id must be a positive integer", nil)
			return
		}

		_ = sess.NavigateToDetail(c.Request.Context(), id)
		c.JSON(http.StatusOK, sess.View())
	})
}

func withSession(deps *Dependencies, next func(*gin.Context, *session.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := deps.Sessions.Get(c.Param("id"))
		if !ok {
			sessionNotFound(c)
			return
		}
		next(c, sess)
	}
}

func sessionNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Status:  StatusError,
		Message: "session not found",
	})
}

func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{
		Status:  StatusError,
		Message: message,
	}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
