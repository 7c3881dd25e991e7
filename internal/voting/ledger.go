// Package voting records one vote per (user, target) and computes target scores.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/store"
)

var (
	ErrInvalidVote   = errors.New("vote must be 1 or -1")
	ErrInvalidTarget = errors.New("unknown vote target")
)

// Result is the stored vote value and the target's total after the write.
type Result struct {
	Vote  int `json:"vote"`
	Total int `json:"total_votes"`
}

type Ledger struct {
	store  store.Store
	logger *slog.Logger
}

func NewLedger(s store.Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: s, logger: logger}
}

// ParseKind maps a route segment to a target kind.
func ParseKind(raw string) (models.TargetKind, error) {
	kind := models.TargetKind(raw)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}
	return kind, nil
}

// CastVote inserts voterID's vote on target or replaces its value.
func (l *Ledger) CastVote(ctx context.Context, voterID int, target models.Target, value int) (Result, error) {
	if value != 1 && value != -1 {
		return Result{}, ErrInvalidVote
	}
	if !target.Kind.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidTarget, target.Kind)
	}

	var result Result
	err := l.store.Transact(ctx, func(tx store.Tx) error {
		if err := tx.LockTarget(ctx, target); err != nil {
			return err
		}
		vote := &models.Vote{
			UserID:     voterID,
			TargetKind: target.Kind,
			TargetID:   target.ID,
			Value:      value,
		}
		if err := tx.UpsertVote(ctx, vote); err != nil {
			return err
		}
		total, err := tx.Score(ctx, target)
		if err != nil {
			return err
		}
		result = Result{Vote: vote.Value, Total: total}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("cast vote on %s: %w", target, err)
	}

	l.logger.Debug("vote recorded",
		"event", "vote_recorded",
		"module", "voting",
		"layer", "application",
		"user_id", voterID,
		"target", target.String(),
		"value", result.Vote,
		"total", result.Total,
	)
	return result, nil
}

// Score returns the signed sum of all votes on target.
func (l *Ledger) Score(ctx context.Context, target models.Target) (int, error) {
	if !target.Kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, target.Kind)
	}
	scores, err := l.store.Scores(ctx, target.Kind, []int{target.ID})
	if err != nil {
		return 0, err
	}
	return scores[target.ID], nil
}

// Scores returns scores for many targets of one kind. Ids without votes map to 0.
func (l *Ledger) Scores(ctx context.Context, kind models.TargetKind, ids []int) (map[int]int, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, kind)
	}
	if len(ids) == 0 {
		return map[int]int{}, nil
	}
	return l.store.Scores(ctx, kind, ids)
}
