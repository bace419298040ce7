package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemWritesProblemJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	Problem(rr, http.StatusBadRequest, "Invalid Period", "expected YY.MM")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, ProblemDetail{Type: "about:blank", Title: "Invalid Period", Status: 400, Detail: "expected YY.MM"}, body)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		title  string
	}{
		{fmt.Errorf("period 25.01: %w", ErrNotFound), http.StatusNotFound, "Not Found"},
		{ErrValidation, http.StatusBadRequest, "Validation Failed"},
		{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{ErrUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
		{fmt.Errorf("derive: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Timeout"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.status, rr.Code)
			var body ProblemDetail
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.title, body.Title)
			assert.NotContains(t, body.Detail, "disk on fire")
		})
	}
}

func TestJSONDoesNotEscapeHTML(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]string{"label": "A&B <Ltd>"})
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"label":"A&B <Ltd>"}`, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "A&B <Ltd>")
}

func TestProblemDefaultsTitle(t *testing.T) {
	rr := httptest.NewRecorder()
	Problem(rr, http.StatusTooManyRequests, "", "")
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Too Many Requests", body.Title)
	assert.Equal(t, strconv.Itoa(rr.Body.Len()), rr.Header().Get("Content-Length"))
}

func TestJSONUnencodableValue(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]any{"f": func() {}})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEqual(t, "application/json", rr.Header().Get("Content-Type"))
}
