package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qanda/backend/internal/acceptance"
	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/notify"
	"github.com/emilythestrangee/qanda/backend/internal/store"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

type AnswerHandler struct {
	store      store.Store
	ledger     *voting.Ledger
	acceptance *acceptance.Controller
	dispatcher Dispatcher
	present    *presenter
	logger     *slog.Logger
}

// GetAnswers lists answers, optionally only those of ?question=<id>.
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID := 0
	if raw := c.Query("question"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question"})
			return
		}
		questionID = id
	}
	ctx := c.Request.Context()

	answers, err := h.store.ListAnswers(ctx, questionID)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	resp, err := h.present.answers(ctx, answers)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnswerHandler) GetAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	answer, err := h.store.Answer(ctx, id)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	resp, err := h.present.answer(ctx, answer)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateAnswer posts an answer and tells the question author about it.
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	answer := models.Answer{
		Content:    input.Content,
		QuestionID: input.QuestionID,
		UserID:     userID,
	}
	if err := h.store.CreateAnswer(ctx, &answer); err != nil {
		respondError(c, err, "Question not found")
		return
	}
	h.notifyQuestionAuthor(c, answer)

	resp, err := h.present.answer(ctx, answer)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AnswerHandler) notifyQuestionAuthor(c *gin.Context, answer models.Answer) {
	if h.dispatcher == nil {
		return
	}
	ctx := c.Request.Context()
	question, err := h.store.Question(ctx, answer.QuestionID)
	if err != nil || question.UserID == answer.UserID {
		return
	}
	author, err := h.store.User(ctx, question.UserID)
	if err != nil {
		h.logger.Warn("question author lookup failed",
			"event", "notification_lookup_failed",
			"module", "handlers",
			"layer", "transport",
			"question_id", question.ID,
			"error", err.Error(),
		)
		return
	}
	h.dispatcher.Dispatch(notify.NewAnswer(author, question))
}

func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	answer, err := h.store.Answer(ctx, id)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	if answer.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own answers"})
		return
	}

	answer.Content = input.Content
	if err := h.store.UpdateAnswer(ctx, &answer); err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	resp, err := h.present.answer(ctx, answer)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	answer, err := h.store.Answer(ctx, id)
	if err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	if answer.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own answers"})
		return
	}
	if err := h.store.DeleteAnswer(ctx, id); err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// AcceptAnswer lets the question author mark this answer as the accepted one.
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.acceptance.AcceptAnswer(c.Request.Context(), userID, id); err != nil {
		respondError(c, err, "Answer not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Answer marked as accepted."})
}

func (h *AnswerHandler) VoteAnswer(c *gin.Context) {
	castVote(c, h.ledger, models.KindAnswer, "Answer not found")
}
