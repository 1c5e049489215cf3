package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airtrends/airtrends/internal/api/models"
)

func TestProblem_NewProblem(t *testing.T) {
	p := models.NewProblem(
		models.ProblemTypeValidation,
		"Validation error",
		http.StatusBadRequest,
		"req_test123",
	)

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Empty(t, p.Detail)
	assert.Nil(t, p.Errors)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "sites", Message: "select at least one monitoring site"},
	})
	p.Instance = "/v1/collections"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var decoded models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, "invalid input", decoded.Detail)
	assert.Equal(t, "/v1/collections", decoded.Instance)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "sites", decoded.Errors[0].Field)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name        string
		problem     *models.Problem
		status      int
		problemType string
	}{
		{"bad request", models.NewBadRequest("id", "d", nil), http.StatusBadRequest, models.ProblemTypeValidation},
		{"not found", models.NewNotFound("id", "d"), http.StatusNotFound, models.ProblemTypeNotFound},
		{"no data", models.NewNoData("id", "d"), http.StatusNotFound, models.ProblemTypeNoData},
		{"too many requests", models.NewTooManyRequests("id", "d"), http.StatusTooManyRequests, models.ProblemTypeTooManyRequests},
		{"internal", models.NewInternalError("id", "d"), http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", models.NewServiceUnavailable("id", "d"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, tt.problemType, tt.problem.Type)
			assert.Equal(t, "d", tt.problem.Detail)
		})
	}
}
