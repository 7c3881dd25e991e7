package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

func castVote(c *gin.Context, ledger *voting.Ledger, kind models.TargetKind, notFound string) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote must be 1 or -1"})
		return
	}

	result, err := ledger.CastVote(c.Request.Context(), userID, models.Target{Kind: kind, ID: id}, input.Vote)
	if err != nil {
		respondError(c, err, notFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "Vote recorded",
		"vote":        result.Vote,
		"total_votes": result.Total,
	})
}
