// Package memstore is an in-process store.Store. A single mutex guards all
// state, so every Transact closure is serialized and rolled back on error.
package memstore

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emilythestrangee/qanda/backend/internal/models"
	"github.com/emilythestrangee/qanda/backend/internal/store"
)

type voteKey struct {
	userID int
	target models.Target
}

type state struct {
	seq       map[string]int
	users     map[int]models.User
	profiles  map[int]models.UserProfile
	questions map[int]models.Question
	answers   map[int]models.Answer
	votes     map[voteKey]models.Vote
	revoked   map[string]time.Time
}

func (s state) clone() state {
	return state{
		seq:       maps.Clone(s.seq),
		users:     maps.Clone(s.users),
		profiles:  maps.Clone(s.profiles),
		questions: maps.Clone(s.questions),
		answers:   maps.Clone(s.answers),
		votes:     maps.Clone(s.votes),
		revoked:   maps.Clone(s.revoked),
	}
}

type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

func New() *Store {
	return &Store{
		st: state{
			seq:       make(map[string]int),
			users:     make(map[int]models.User),
			profiles:  make(map[int]models.UserProfile),
			questions: make(map[int]models.Question),
			answers:   make(map[int]models.Answer),
			votes:     make(map[voteKey]models.Vote),
			revoked:   make(map[string]time.Time),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source. Tests use it to get stable ordering.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) nextID(table string) int {
	s.st.seq[table]++
	return s.st.seq[table]
}

func (s *Store) Transact(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&tx{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.users {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return store.ErrConflict
		}
	}
	now := s.now()
	user.ID = s.nextID("users")
	user.CreatedAt, user.UpdatedAt = now, now
	user.Profile = nil
	s.st.users[user.ID] = *user
	s.st.profiles[user.ID] = models.UserProfile{ID: s.nextID("profiles"), UserID: user.ID}
	return nil
}

func (s *Store) User(_ context.Context, id int) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user(id)
}

func (s *Store) user(id int) (models.User, error) {
	user, ok := s.st.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.st.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *Store) Profile(_ context.Context, userID int) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.st.profiles[userID]
	if !ok {
		return models.UserProfile{}, store.ErrNotFound
	}
	return profile, nil
}

func (s *Store) CreateQuestion(_ context.Context, question *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.user(question.UserID); err != nil {
		return err
	}
	now := s.now()
	question.ID = s.nextID("questions")
	question.CreatedAt, question.UpdatedAt = now, now
	s.st.questions[question.ID] = *question
	return nil
}

func (s *Store) Question(_ context.Context, id int) (models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.st.questions[id]
	if !ok {
		return models.Question{}, store.ErrNotFound
	}
	return question, nil
}

func (s *Store) ListQuestions(_ context.Context, filter models.QuestionFilter) ([]models.Question, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	items := make([]models.Question, 0, len(s.st.questions))
	for _, question := range s.st.questions {
		if filter.Tags != "" && question.Tags != filter.Tags {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(question.Title), search) &&
			!strings.Contains(strings.ToLower(question.Tags), search) {
			continue
		}
		items = append(items, question)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.OldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if filter.OldestFirst {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	total := int64(len(items))
	start := min(max(filter.Offset, 0), len(items))
	end := len(items)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(items))
	}
	return items[start:end], total, nil
}

func (s *Store) UpdateQuestion(_ context.Context, question *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.st.questions[question.ID]
	if !ok {
		return store.ErrNotFound
	}
	current.Title = question.Title
	current.Content = question.Content
	current.Tags = question.Tags
	current.UpdatedAt = s.now()
	s.st.questions[current.ID] = current
	*question = current
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.questions[id]; !ok {
		return store.ErrNotFound
	}
	for answerID, answer := range s.st.answers {
		if answer.QuestionID == id {
			s.deleteVotes(models.Target{Kind: models.KindAnswer, ID: answerID})
			delete(s.st.answers, answerID)
		}
	}
	s.deleteVotes(models.Target{Kind: models.KindQuestion, ID: id})
	delete(s.st.questions, id)
	return nil
}

func (s *Store) CreateAnswer(_ context.Context, answer *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.questions[answer.QuestionID]; !ok {
		return store.ErrNotFound
	}
	if _, err := s.user(answer.UserID); err != nil {
		return err
	}
	now := s.now()
	answer.ID = s.nextID("answers")
	answer.IsAccepted = false
	answer.CreatedAt, answer.UpdatedAt = now, now
	s.st.answers[answer.ID] = *answer
	return nil
}

func (s *Store) Answer(_ context.Context, id int) (models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer(id)
}

func (s *Store) answer(id int) (models.Answer, error) {
	answer, ok := s.st.answers[id]
	if !ok {
		return models.Answer{}, store.ErrNotFound
	}
	return answer, nil
}

// ListAnswers returns answers oldest first. questionID 0 lists every answer.
func (s *Store) ListAnswers(_ context.Context, questionID int) ([]models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.Answer, 0)
	for _, answer := range s.st.answers {
		if questionID == 0 || answer.QuestionID == questionID {
			items = append(items, answer)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) UpdateAnswer(_ context.Context, answer *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.st.answers[answer.ID]
	if !ok {
		return store.ErrNotFound
	}
	current.Content = answer.Content
	current.UpdatedAt = s.now()
	s.st.answers[current.ID] = current
	*answer = current
	return nil
}

func (s *Store) DeleteAnswer(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.answers[id]; !ok {
		return store.ErrNotFound
	}
	s.deleteVotes(models.Target{Kind: models.KindAnswer, ID: id})
	delete(s.st.answers, id)
	return nil
}

func (s *Store) deleteVotes(target models.Target) {
	for key := range s.st.votes {
		if key.target == target {
			delete(s.st.votes, key)
		}
	}
}

func (s *Store) Scores(_ context.Context, kind models.TargetKind, ids []int) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scores := make(map[int]int, len(ids))
	for _, id := range ids {
		scores[id] = s.score(models.Target{Kind: kind, ID: id})
	}
	return scores, nil
}

func (s *Store) score(target models.Target) int {
	total := 0
	for key, vote := range s.st.votes {
		if key.target == target {
			total += vote.Value
		}
	}
	return total
}

func (s *Store) Usernames(_ context.Context, ids []int) (map[int]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[int]string, len(ids))
	for _, id := range ids {
		if user, ok := s.st.users[id]; ok {
			names[id] = user.Username
		}
	}
	return names, nil
}

func (s *Store) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.revoked[tokenID] = expiresAt.UTC()
	return nil
}

func (s *Store) TokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.revoked[tokenID]
	return ok, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// VoteCount returns the number of vote rows held for target.
func (s *Store) VoteCount(target models.Target) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.st.votes {
		if key.target == target {
			n++
		}
	}
	return n
}

// AcceptedAnswers returns the ids of accepted answers of a question.
func (s *Store) AcceptedAnswers(questionID int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for _, answer := range s.st.answers {
		if answer.QuestionID == questionID && answer.IsAccepted {
			ids = append(ids, answer.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

var _ store.Store = (*Store)(nil)
