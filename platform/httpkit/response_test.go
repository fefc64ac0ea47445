package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadline_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperr.NotFound("lead not found"), http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("invalid credentials"), http.StatusUnauthorized},
		{"internal", apperr.Wrap(apperr.KindInternal, "find lead", errors.New("conn refused")), http.StatusInternalServerError},
		{"untyped falls back to 400", errors.New("boom"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			if !HandleError(c, tt.err) {
				t.Fatal("HandleError returned false for non-nil error")
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	if HandleError(c, nil) {
		t.Error("HandleError handled a nil error")
	}
}
