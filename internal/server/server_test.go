package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qanda/backend/internal/acceptance"
	"github.com/emilythestrangee/qanda/backend/internal/auth"
	"github.com/emilythestrangee/qanda/backend/internal/handlers"
	"github.com/emilythestrangee/qanda/backend/internal/notify"
	"github.com/emilythestrangee/qanda/backend/internal/store/memstore"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Dispatch(msg notify.Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return true
}

func (o *outbox) subjects() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.msgs))
	for _, m := range o.msgs {
		out = append(out, m.Subject)
	}
	return out
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *memstore.Store
	outbox *outbox
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memstore.New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	st.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	box := &outbox{}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	h := handlers.NewHandler(handlers.Deps{
		Store:      st,
		Ledger:     voting.NewLedger(st, nil),
		Acceptance: acceptance.NewController(st, box, nil),
		Dispatcher: box,
		Issuer:     issuer,
	})
	return &testAPI{t: t, router: New(nil, st, issuer, h, nil).RegisterRoutes(), store: st, outbox: box}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) register(name string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "secret123",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](a.t, w).Token
}

func (a *testAPI) createQuestion(token, title, tags string) int {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/questions", token, map[string]string{
		"title":   title,
		"content": "details about " + title,
		"tags":    tags,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID int `json:"id"`
	}](a.t, w).ID
}

func (a *testAPI) createAnswer(token string, questionID int, content string) int {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/answers", token, map[string]any{
		"question": questionID,
		"content":  content,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID int `json:"id"`
	}](a.t, w).ID
}

type voteResponse struct {
	Status     string `json:"status"`
	Vote       int    `json:"vote"`
	TotalVotes int    `json:"total_votes"`
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"up"}`, w.Body.String())
}

func TestRegisterLoginLogout(t *testing.T) {
	api := newTestAPI(t)
	api.register("ada")

	w := api.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": "ada", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[struct {
		Token string `json:"token"`
	}](t, w).Token

	w = api.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[map[string]any](t, w)
	assert.Equal(t, "ada", profile["username"])
	assert.Equal(t, "ada@example.com", profile["email"])
	assert.EqualValues(t, 0, profile["reputation"])

	w = api.do(http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodPost, "/api/questions", "", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoteOnQuestion(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	voter := api.register("voter")
	qid := api.createQuestion(owner, "Goroutines?", "go")
	path := fmt.Sprintf("/api/questions/%d/vote", qid)

	w := api.do(http.MethodPost, path, voter, map[string]int{"vote": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, voteResponse{"Vote recorded", 1, 1}, decode[voteResponse](t, w))

	w = api.do(http.MethodPost, path, voter, map[string]int{"vote": -1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, voteResponse{"Vote recorded", -1, -1}, decode[voteResponse](t, w))

	w = api.do(http.MethodPost, path, owner, map[string]int{"vote": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[voteResponse](t, w).TotalVotes)

	w = api.do(http.MethodPost, path, voter, map[string]int{"vote": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/questions/999/vote", voter, map[string]int{"vote": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", qid), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["vote_count"])
}

func TestAnswerFlow(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	helper := api.register("helper")
	qid := api.createQuestion(owner, "Channels?", "go")

	first := api.createAnswer(helper, qid, "use a buffered channel")
	second := api.createAnswer(owner, qid, "use a mutex")
	assert.Equal(t, []string{"New Answer Posted on Your Question"}, api.outbox.subjects())

	w := api.do(http.MethodPost, fmt.Sprintf("/api/answers/%d/vote", first), owner, map[string]int{"vote": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPost, fmt.Sprintf("/api/answers/%d/accept", first), helper, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, api.store.AcceptedAnswers(qid))

	w = api.do(http.MethodPost, fmt.Sprintf("/api/answers/%d/accept", first), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"Answer marked as accepted."}`, w.Body.String())

	w = api.do(http.MethodPost, fmt.Sprintf("/api/answers/%d/accept", second), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{second}, api.store.AcceptedAnswers(qid))

	w = api.do(http.MethodPost, "/api/answers/999/accept", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", qid), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var q struct {
		User    string `json:"user"`
		Answers []struct {
			ID         int    `json:"id"`
			User       string `json:"user"`
			Question   int    `json:"question"`
			IsAccepted bool   `json:"is_accepted"`
			VoteCount  int    `json:"vote_count"`
		} `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, "owner", q.User)
	require.Len(t, q.Answers, 2)
	assert.Equal(t, first, q.Answers[0].ID)
	assert.Equal(t, "helper", q.Answers[0].User)
	assert.Equal(t, qid, q.Answers[0].Question)
	assert.False(t, q.Answers[0].IsAccepted)
	assert.Equal(t, 1, q.Answers[0].VoteCount)
	assert.True(t, q.Answers[1].IsAccepted)

	assert.Equal(t, []string{
		"New Answer Posted on Your Question",
		"Your Answer Has Been Accepted",
		"Your Answer Has Been Accepted",
	}, api.outbox.subjects())
}

func TestAnswerOwnership(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	other := api.register("other")
	qid := api.createQuestion(owner, "Interfaces?", "go")
	aid := api.createAnswer(owner, qid, "small ones")
	path := fmt.Sprintf("/api/answers/%d", aid)

	w := api.do(http.MethodPut, path, other, map[string]string{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPatch, path, owner, map[string]string{"content": "keep them small"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "keep them small", decode[map[string]any](t, w)["content"])

	w = api.do(http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuestionOwnershipAndCascade(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	other := api.register("other")
	qid := api.createQuestion(owner, "Generics?", "go")
	aid := api.createAnswer(other, qid, "since 1.18")
	path := fmt.Sprintf("/api/questions/%d", qid)

	w := api.do(http.MethodPatch, path, other, map[string]string{"title": "mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPatch, path, owner, map[string]string{"tags": "go,generics"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Generics?", body["title"])
	assert.Equal(t, "go,generics", body["tags"])

	w = api.do(http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/answers/%d", aid), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListQuestions(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	for i := 1; i <= 7; i++ {
		tags := "go"
		if i%2 == 0 {
			tags = "rust"
		}
		api.createQuestion(owner, fmt.Sprintf("Question %d", i), tags)
	}

	type page struct {
		Count    int `json:"count"`
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
		Results  []struct {
			Title string `json:"title"`
		} `json:"results"`
	}

	w := api.do(http.MethodGet, "/api/questions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[page](t, w)
	assert.Equal(t, 7, p.Count)
	assert.Equal(t, 5, p.PageSize)
	require.Len(t, p.Results, 5)
	assert.Equal(t, "Question 7", p.Results[0].Title)

	w = api.do(http.MethodGet, "/api/questions?page=2&page_size=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[page](t, w).Results, 2)

	w = api.do(http.MethodGet, "/api/questions?ordering=created_at&tags=rust", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p = decode[page](t, w)
	assert.Equal(t, 3, p.Count)
	assert.Equal(t, "Question 2", p.Results[0].Title)

	w = api.do(http.MethodGet, "/api/questions?search=question%203", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p = decode[page](t, w)
	require.Equal(t, 1, p.Count)
	assert.Equal(t, "Question 3", p.Results[0].Title)

	w = api.do(http.MethodGet, "/api/questions?page_size=1000", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, decode[page](t, w).PageSize)

	w = api.do(http.MethodGet, "/api/questions?ordering=title", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConcurrentAcceptOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	helper := api.register("helper")
	qid := api.createQuestion(owner, "Races?", "go")
	ids := []int{
		api.createAnswer(helper, qid, "a"),
		api.createAnswer(helper, qid, "b"),
		api.createAnswer(helper, qid, "c"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost,
				fmt.Sprintf("/api/answers/%d/accept", ids[i%len(ids)]), nil).WithContext(context.Background())
			req.Header.Set("Authorization", "Bearer "+owner)
			w := httptest.NewRecorder()
			api.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	assert.Len(t, api.store.AcceptedAnswers(qid), 1)
}
