package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"knowledge-qa-go/pkg/errs"
)

func doRespondError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/query", nil)
	respondError(c, err)
	return w
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &errs.ValidationError{Message: "question must not be empty"}, http.StatusBadRequest},
		{"not found", &errs.NotFoundError{Message: "no documents to query against"}, http.StatusNotFound},
		{"provider", &errs.ProviderError{Status: 429, Message: "rate limited"}, http.StatusBadGateway},
		{"protocol", &errs.ProtocolError{Message: "missing fields"}, http.StatusBadGateway},
		{"network", &errs.NetworkError{Message: "no response"}, http.StatusServiceUnavailable},
		{"dimension", &errs.DimensionMismatchError{Want: 2, Got: 3}, http.StatusInternalServerError},
		{"configuration", &errs.ConfigurationError{Message: "api key missing"}, http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRespondError(t, tc.err)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestRespondError_WrappedErrorsAreClassified(t *testing.T) {
	wrapped := fmt.Errorf("embed chunk 2: %w", &errs.ProviderError{Status: 500, Message: "boom"})
	w := doRespondError(t, wrapped)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRespondError_InternalDetailsNotLeaked(t *testing.T) {
	w := doRespondError(t, errors.New("dsn user:password@tcp(db:3306)"))
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), "internal server error")
}
