package handlers

import (
	"context"
	"time"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/store"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

type answerResponse struct {
	ID         int       `json:"id"`
	Content    string    `json:"content"`
	Question   int       `json:"question"`
	User       string    `json:"user"`
	CreatedAt  time.Time `json:"created_at"`
	IsAccepted bool      `json:"is_accepted"`
	VoteCount  int       `json:"vote_count"`
}

type questionResponse struct {
	ID        int              `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Tags      string           `json:"tags"`
	User      string           `json:"user"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	VoteCount int              `json:"vote_count"`
	Answers   []answerResponse `json:"answers"`
}

// presenter resolves usernames and vote counts in batches for responses.
type presenter struct {
	store  store.Store
	ledger *voting.Ledger
}

func (p *presenter) answers(ctx context.Context, answers []models.Answer) ([]answerResponse, error) {
	ids := make([]int, 0, len(answers))
	userIDs := make([]int, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
		userIDs = append(userIDs, a.UserID)
	}
	scores, err := p.ledger.Scores(ctx, models.KindAnswer, ids)
	if err != nil {
		return nil, err
	}
	names, err := p.store.Usernames(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]answerResponse, 0, len(answers))
	for _, a := range answers {
		out = append(out, answerResponse{
			ID:         a.ID,
			Content:    a.Content,
			Question:   a.QuestionID,
			User:       names[a.UserID],
			CreatedAt:  a.CreatedAt,
			IsAccepted: a.IsAccepted,
			VoteCount:  scores[a.ID],
		})
	}
	return out, nil
}

func (p *presenter) questions(ctx context.Context, questions []models.Question) ([]questionResponse, error) {
	ids := make([]int, 0, len(questions))
	userIDs := make([]int, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
		userIDs = append(userIDs, q.UserID)
	}
	scores, err := p.ledger.Scores(ctx, models.KindQuestion, ids)
	if err != nil {
		return nil, err
	}
	names, err := p.store.Usernames(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		answers, err := p.store.ListAnswers(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		presented, err := p.answers(ctx, answers)
		if err != nil {
			return nil, err
		}
		out = append(out, questionResponse{
			ID:        q.ID,
			Title:     q.Title,
			Content:   q.Content,
			Tags:      q.Tags,
			User:      names[q.UserID],
			CreatedAt: q.CreatedAt,
			UpdatedAt: q.UpdatedAt,
			VoteCount: scores[q.ID],
			Answers:   presented,
		})
	}
	return out, nil
}

func (p *presenter) question(ctx context.Context, q models.Question) (questionResponse, error) {
	out, err := p.questions(ctx, []models.Question{q})
	if err != nil {
		return questionResponse{}, err
	}
	return out[0], nil
}

func (p *presenter) answer(ctx context.Context, a models.Answer) (answerResponse, error) {
	out, err := p.answers(ctx, []models.Answer{a})
	if err != nil {
		return answerResponse{}, err
	}
	return out[0], nil
}
