package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/store"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

const (
	defaultPageSize = 5
	maxPageSize     = 100
)

type QuestionHandler struct {
	store   store.Store
	ledger  *voting.Ledger
	present *presenter
	logger  *slog.Logger
}

func listFilter(c *gin.Context) (models.QuestionFilter, int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return models.QuestionFilter{}, 0, 0, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page_size"})
		return models.QuestionFilter{}, 0, 0, false
	}
	size = min(size, maxPageSize)

	filter := models.QuestionFilter{
		Tags:   strings.TrimSpace(c.Query("tags")),
		Search: strings.TrimSpace(c.Query("search")),
		Offset: (page - 1) * size,
		Limit:  size,
	}
	switch c.DefaultQuery("ordering", "-created_at") {
	case "created_at":
		filter.OldestFirst = true
	case "-created_at":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "ordering must be created_at or -created_at"})
		return models.QuestionFilter{}, 0, 0, false
	}
	return filter, page, size, true
}

// GetQuestions returns one page of questions, newest first by default.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	filter, page, size, ok := listFilter(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	questions, total, err := h.store.ListQuestions(ctx, filter)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}
	results, err := h.present.questions(ctx, questions)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     total,
		"page":      page,
		"page_size": size,
		"results":   results,
	})
}

// GetQuestion returns a single question with its answers
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	question, err := h.store.Question(ctx, id)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}
	resp, err := h.present.question(ctx, question)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	question := models.Question{
		Title:   strings.TrimSpace(input.Title),
		Content: input.Content,
		Tags:    strings.TrimSpace(input.Tags),
		UserID:  userID,
	}
	if err := h.store.CreateQuestion(ctx, &question); err != nil {
		respondError(c, err, "User not found")
		return
	}
	h.logger.Info("question created",
		"event", "question_created",
		"module", "handlers",
		"layer", "transport",
		"question_id", question.ID,
		"user_id", userID,
	)

	resp, err := h.present.question(ctx, question)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateQuestion edits the caller's own question. Omitted fields are kept.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	question, err := h.store.Question(ctx, id)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}
	if question.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own questions"})
		return
	}

	if input.Title != nil {
		question.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		question.Content = *input.Content
	}
	if input.Tags != nil {
		question.Tags = strings.TrimSpace(*input.Tags)
	}
	if question.Title == "" || question.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and content cannot be empty"})
		return
	}

	if err := h.store.UpdateQuestion(ctx, &question); err != nil {
		respondError(c, err, "Question not found")
		return
	}
	resp, err := h.present.question(ctx, question)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteQuestion removes the caller's own question with its answers and votes.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	question, err := h.store.Question(ctx, id)
	if err != nil {
		respondError(c, err, "Question not found")
		return
	}
	if question.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own questions"})
		return
	}
	if err := h.store.DeleteQuestion(ctx, id); err != nil {
		respondError(c, err, "Question not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// VoteQuestion records the caller's vote on a question.
func (h *QuestionHandler) VoteQuestion(c *gin.Context) {
	castVote(c, h.ledger, models.KindQuestion, "Question not found")
}
