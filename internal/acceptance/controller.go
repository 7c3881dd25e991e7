// Package acceptance marks the single accepted answer of a question.
package acceptance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/notify"
	"github.com/emilythestrangee/qanda/backend/internal/store"
)

var ErrNotQuestionAuthor = errors.New("only the question author can accept an answer")

// Dispatcher hands a notification off for background delivery.
type Dispatcher interface {
	Dispatch(msg notify.Message) bool
}

type Controller struct {
	store      store.Store
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewController(s store.Store, d Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: s, dispatcher: d, logger: logger}
}

// AcceptAnswer makes answerID the accepted answer of its question. Any answer
// accepted before is unset in the same transaction. The answer's author is
// notified after commit, including when the answer was already accepted.
func (c *Controller) AcceptAnswer(ctx context.Context, requesterID, answerID int) (models.Answer, error) {
	var (
		answer   models.Answer
		question models.Question
		author   models.User
	)
	err := c.store.Transact(ctx, func(tx store.Tx) error {
		var err error
		if answer, err = tx.Answer(ctx, answerID); err != nil {
			return err
		}
		if question, err = tx.LockQuestion(ctx, answer.QuestionID); err != nil {
			return err
		}
		if question.UserID != requesterID {
			return ErrNotQuestionAuthor
		}
		if err := tx.ClearAccepted(ctx, question.ID); err != nil {
			return err
		}
		if err := tx.MarkAccepted(ctx, answer.ID); err != nil {
			return err
		}
		answer.IsAccepted = true
		author, err = tx.User(ctx, answer.UserID)
		return err
	})
	if err != nil {
		return models.Answer{}, fmt.Errorf("accept answer %d: %w", answerID, err)
	}

	c.logger.Info("answer accepted",
		"event", "answer_accepted",
		"module", "acceptance",
		"layer", "application",
		"question_id", question.ID,
		"answer_id", answer.ID,
		"user_id", requesterID,
	)
	if c.dispatcher != nil {
		c.dispatcher.Dispatch(notify.AnswerAccepted(author, question))
	}
	return answer, nil
}
