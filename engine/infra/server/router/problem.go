package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/retriever"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// Problem codes.
const (
	ErrInternalCode           = "internal_error"
	ErrBadRequestCode         = "bad_request"
	ErrNotFoundCode           = "not_found"
	ErrUnknownFamilyCode      = "unknown_family"
	ErrInvalidArticleCode     = "invalid_article"
	ErrServiceUnavailableCode = "service_unavailable"
)

const problemContentType = "application/problem+json"

// Problem models an RFC 7807 error envelope for API responses.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Code     string `json:"code,omitempty"`
}

// RespondProblem writes a canonical RFC 7807 error response.
func RespondProblem(c *gin.Context, problem *Problem) {
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}
	if problem.Type == "" {
		problem.Type = "about:blank"
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	logProblem(c, problem)
	payload, err := json.Marshal(problem)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("failed to marshal problem", "err", err)
		fallback := []byte(`{"status":500,"title":"Internal Server Error"}`)
		c.Data(http.StatusInternalServerError, problemContentType, fallback)
		c.Abort()
		return
	}
	c.Data(problem.Status, problemContentType, payload)
	c.Abort()
}

// RespondProblemWithCode writes a problem response embedding a code and detail.
func RespondProblemWithCode(c *gin.Context, status int, code string, detail string) {
	RespondProblem(c, &Problem{Status: status, Detail: detail, Code: code})
}

// RespondError maps knowledge errors onto problem responses.
func RespondError(c *gin.Context, err error) {
	var invalid *knowledge.InvalidArticleError
	switch {
	case errors.Is(err, knowledge.ErrNotFound):
		RespondProblemWithCode(c, http.StatusNotFound, ErrNotFoundCode, err.Error())
	case errors.Is(err, knowledge.ErrUnknownFamily):
		RespondProblemWithCode(c, http.StatusNotFound, ErrUnknownFamilyCode, err.Error())
	case errors.As(err, &invalid), errors.Is(err, retriever.ErrNoArticles):
		RespondProblemWithCode(c, http.StatusBadRequest, ErrInvalidArticleCode, err.Error())
	case errors.Is(err, knowledge.ErrEmptyText):
		RespondProblemWithCode(c, http.StatusBadRequest, ErrBadRequestCode, err.Error())
	case errors.Is(err, retriever.ErrSearchDisabled):
		RespondProblemWithCode(c, http.StatusServiceUnavailable, ErrServiceUnavailableCode, err.Error())
	default:
		RespondProblemWithCode(c, http.StatusInternalServerError, ErrInternalCode, "query failed")
		logger.FromContext(c.Request.Context()).Error("Unhandled query error", "error", err)
	}
}

// RespondOK writes the success envelope.
func RespondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{
		"data":    data,
		"message": message,
	})
}

func logProblem(c *gin.Context, problem *Problem) {
	log := logger.FromContext(c.Request.Context())
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := []any{
		"status", problem.Status,
		"title", problem.Title,
		"detail", problem.Detail,
		"route", route,
	}
	if problem.Code != "" {
		fields = append(fields, "code", problem.Code)
	}
	if requestID := c.Request.Header.Get("X-Request-ID"); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if problem.Status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Warn("request failed", fields...)
}
