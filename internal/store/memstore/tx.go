package memstore

import (
	"context"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/store"
)

// tx runs with Store.mu held by Transact.
type tx struct {
	s *Store
}

func (t *tx) LockTarget(_ context.Context, target models.Target) error {
	var ok bool
	switch target.Kind {
	case models.KindQuestion:
		_, ok = t.s.st.questions[target.ID]
	case models.KindAnswer:
		_, ok = t.s.st.answers[target.ID]
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) UpsertVote(_ context.Context, vote *models.Vote) error {
	key := voteKey{userID: vote.UserID, target: vote.Target()}
	now := t.s.now()
	current, ok := t.s.st.votes[key]
	if !ok {
		current = models.Vote{
			ID:         t.s.nextID("votes"),
			UserID:     vote.UserID,
			TargetKind: vote.TargetKind,
			TargetID:   vote.TargetID,
			CreatedAt:  now,
		}
	}
	current.Value = vote.Value
	current.UpdatedAt = now
	t.s.st.votes[key] = current
	*vote = current
	return nil
}

func (t *tx) Score(_ context.Context, target models.Target) (int, error) {
	return t.s.score(target), nil
}

func (t *tx) Answer(_ context.Context, id int) (models.Answer, error) {
	return t.s.answer(id)
}

func (t *tx) LockQuestion(_ context.Context, id int) (models.Question, error) {
	question, ok := t.s.st.questions[id]
	if !ok {
		return models.Question{}, store.ErrNotFound
	}
	return question, nil
}

func (t *tx) ClearAccepted(_ context.Context, questionID int) error {
	for id, answer := range t.s.st.answers {
		if answer.QuestionID == questionID && answer.IsAccepted {
			answer.IsAccepted = false
			t.s.st.answers[id] = answer
		}
	}
	return nil
}

func (t *tx) MarkAccepted(_ context.Context, answerID int) error {
	answer, ok := t.s.st.answers[answerID]
	if !ok {
		return store.ErrNotFound
	}
	for _, other := range t.s.st.answers {
		if other.QuestionID == answer.QuestionID && other.IsAccepted && other.ID != answerID {
			return store.ErrConflict
		}
	}
	answer.IsAccepted = true
	t.s.st.answers[answerID] = answer
	return nil
}

func (t *tx) User(_ context.Context, id int) (models.User, error) {
	return t.s.user(id)
}

var _ store.Tx = (*tx)(nil)
