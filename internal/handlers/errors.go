package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qanda/backend/internal/acceptance"
	"github.com/emilythestrangee/qanda/backend/internal/store"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

// respondError maps domain errors onto HTTP statuses. notFound is the message
// used when the error is store.ErrNotFound.
func respondError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, voting.ErrInvalidVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote must be 1 or -1"})
	case errors.Is(err, voting.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote target"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, acceptance.ErrNotQuestionAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the question author can accept an answer"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflicting update, please retry"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
