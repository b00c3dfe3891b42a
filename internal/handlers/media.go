package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxMediaLimit = 100

// ListMedia returns records mirrored from detail views, newest first.
func ListMedia(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxMediaLimit {
				badRequest(c, "Limit must be between 1 and 100", nil)
				return
			}
			limit = parsed
		}

		media, err := deps.Media.List(c.Request.Context(), limit)
		if err != nil {
			deps.Logger.WithError(err).Error("Failed to list media")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Status:  StatusError,
				Message: "Failed to list media",
			})
			return
		}

		c.JSON(http.StatusOK, MediaListResponse{
			Status: StatusOK,
			Media:  media,
			Count:  len(media),
		})
	}
}
