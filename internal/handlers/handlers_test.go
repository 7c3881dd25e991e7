package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qanda/backend/internal/acceptance"
	"github.com/emilythestrangee/qanda/backend/internal/store"
	"github.com/emilythestrangee/qanda/backend/internal/voting"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		want int
	}{
		{voting.ErrInvalidVote, http.StatusBadRequest},
		{fmt.Errorf("cast vote: %w", voting.ErrInvalidTarget), http.StatusBadRequest},
		{fmt.Errorf("accept answer 3: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("accept answer 3: %w", acceptance.ErrNotQuestionAuthor), http.StatusForbidden},
		{store.ErrConflict, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err, "Thing not found")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestListFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parse := func(query string) (*httptest.ResponseRecorder, bool, int, int, bool) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/questions?"+query, nil)
		filter, page, size, ok := listFilter(c)
		return w, filter.OldestFirst, page, size, ok
	}

	_, oldest, page, size, ok := parse("")
	require.True(t, ok)
	assert.False(t, oldest)
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageSize, size)

	_, oldest, page, size, ok = parse("page=3&page_size=500&ordering=created_at")
	require.True(t, ok)
	assert.True(t, oldest)
	assert.Equal(t, 3, page)
	assert.Equal(t, maxPageSize, size)

	for _, bad := range []string{"page=0", "page=x", "page_size=-1", "ordering=votes"} {
		w, _, _, _, ok := parse(bad)
		assert.False(t, ok, bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}
