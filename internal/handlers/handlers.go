package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qanda/backend/internal/acceptance"
	"github.com/emilythestrangee/qanda/backend/internal/auth"
	"github.com/emilythestrangee/qanda/backend/internal/middleware"
	"github.com/emilythestrangee/qanda/backend/internal/notify"
	"github.com/emilythestrangee/qanda/backend/internal/store"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

// Dispatcher hands a notification off for background delivery.
type Dispatcher interface {
	Dispatch(msg notify.Message) bool
}

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Store      store.Store
	Ledger     *voting.Ledger
	Acceptance *acceptance.Controller
	Dispatcher Dispatcher
	Issuer     *auth.Issuer
	Logger     *slog.Logger
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	p := &presenter{store: deps.Store, ledger: deps.Ledger}
	return &Handler{
		Auth:     &AuthHandler{store: deps.Store, issuer: deps.Issuer},
		Question: &QuestionHandler{store: deps.Store, ledger: deps.Ledger, present: p, logger: deps.Logger},
		Answer: &AnswerHandler{
			store:      deps.Store,
			ledger:     deps.Ledger,
			acceptance: deps.Acceptance,
			dispatcher: deps.Dispatcher,
			present:    p,
			logger:     deps.Logger,
		},
	}
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) (int, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return userID, true
}
