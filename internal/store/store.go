// Package store defines the persistence ports used by the voting ledger, the
// acceptance controller and the HTTP handlers.
//
// Writes that must be atomic go through Transact; the closure receives a Tx
// scoped to one transaction. Implementations live in gormstore (postgres) and
// memstore (in-process, used by tests and local runs).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/emilythestrangee/qanda/backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// Tx is the set of operations available inside Transact.
type Tx interface {
	// LockTarget loads the votable target and holds it against concurrent
	// deletion until the transaction ends. Returns ErrNotFound if missing.
	LockTarget(ctx context.Context, target models.Target) error
	// UpsertVote inserts the vote or overwrites the value of the existing
	// vote with the same (UserID, TargetKind, TargetID). vote is refreshed
	// with the stored row.
	UpsertVote(ctx context.Context, vote *models.Vote) error
	Score(ctx context.Context, target models.Target) (int, error)

	Answer(ctx context.Context, id int) (models.Answer, error)
	// LockQuestion loads the question and serializes other LockQuestion
	// callers on the same id until the transaction ends.
	LockQuestion(ctx context.Context, id int) (models.Question, error)
	ClearAccepted(ctx context.Context, questionID int) error
	MarkAccepted(ctx context.Context, answerID int) error
	User(ctx context.Context, id int) (models.User, error)
}

type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error

	CreateUser(ctx context.Context, user *models.User) error
	User(ctx context.Context, id int) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	Profile(ctx context.Context, userID int) (models.UserProfile, error)

	CreateQuestion(ctx context.Context, question *models.Question) error
	Question(ctx context.Context, id int) (models.Question, error)
	ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int64, error)
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, id int) error

	CreateAnswer(ctx context.Context, answer *models.Answer) error
	Answer(ctx context.Context, id int) (models.Answer, error)
	ListAnswers(ctx context.Context, questionID int) ([]models.Answer, error)
	UpdateAnswer(ctx context.Context, answer *models.Answer) error
	DeleteAnswer(ctx context.Context, id int) error

	// Scores sums vote values per target id. Ids without votes map to 0.
	Scores(ctx context.Context, kind models.TargetKind, ids []int) (map[int]int, error)
	// Usernames resolves display names for the given user ids.
	Usernames(ctx context.Context, ids []int) (map[int]string, error)

	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	TokenRevoked(ctx context.Context, tokenID string) (bool, error)

	Ping(ctx context.Context) error
}
