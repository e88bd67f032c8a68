package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/focustube-backend/internal/domain/aggregates"
	"github.com/yungbote/focustube-backend/internal/platform/apierr"
)

func respond(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondServiceError(c, err)
	var env ErrorEnvelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &env); decodeErr != nil {
		t.Fatalf("decode body: %v", decodeErr)
	}
	return rec.Code, env
}

func TestRespondServiceErrorMapsCodes(t *testing.T) {
	cases := []struct {
		code domainagg.ErrorCode
		want int
	}{
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodeInvariantViolation, http.StatusConflict},
		{domainagg.CodePreconditionFailed, http.StatusUnprocessableEntity},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		status, env := respond(t, domainagg.NewError(tc.code, "Op", "went wrong", nil))
		if status != tc.want {
			t.Fatalf("%s: status=%d want=%d", tc.code, status, tc.want)
		}
		if env.Error.Code != string(tc.code) || env.Error.Message != "went wrong" {
			t.Fatalf("%s: unexpected envelope %+v", tc.code, env)
		}
	}
}

func TestRespondServiceErrorHidesInternalCause(t *testing.T) {
	status, env := respond(t, errors.New("pq: password authentication failed"))
	if status != http.StatusInternalServerError {
		t.Fatalf("status=%d", status)
	}
	if env.Error.Code != "internal" || env.Error.Message != "internal error" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestRespondServiceErrorHonorsAPIError(t *testing.T) {
	status, env := respond(t, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("token expired")))
	if status != http.StatusUnauthorized || env.Error.Code != "unauthorized" {
		t.Fatalf("status=%d envelope=%+v", status, env)
	}
}
