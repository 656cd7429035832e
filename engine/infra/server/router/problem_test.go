package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/retriever"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, Problem) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/articles/dublin/17", http.NoBody)
	RespondError(c, err)
	var problem Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	return w, problem
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("%w: dublin article 99", knowledge.ErrNotFound), http.StatusNotFound, ErrNotFoundCode},
		{"unknown family", fmt.Errorf("%w: \"x\"", knowledge.ErrUnknownFamily), http.StatusNotFound, ErrUnknownFamilyCode},
		{"invalid article", &knowledge.InvalidArticleError{Raw: "abc"}, http.StatusBadRequest, ErrInvalidArticleCode},
		{"section family", retriever.ErrNoArticles, http.StatusBadRequest, ErrInvalidArticleCode},
		{"blank query", knowledge.ErrEmptyText, http.StatusBadRequest, ErrBadRequestCode},
		{"search disabled", retriever.ErrSearchDisabled, http.StatusServiceUnavailable, ErrServiceUnavailableCode},
		{"anything else", errors.New("bolt: connection reset"), http.StatusInternalServerError, ErrInternalCode},
	}
	for _, tc := range cases {
		t.Run("Should map "+tc.name, func(t *testing.T) {
			w, problem := respond(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
			assert.Equal(t, tc.code, problem.Code)
			assert.Equal(t, tc.status, problem.Status)
			assert.Equal(t, "/api/v1/articles/dublin/17", problem.Instance)
		})
	}

	t.Run("Should not leak internal error text", func(t *testing.T) {
		_, problem := respond(t, errors.New("password=secret"))
		assert.NotContains(t, problem.Detail, "secret")
	})
}
