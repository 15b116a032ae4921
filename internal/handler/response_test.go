package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", service.ErrEmptyComment, http.StatusBadRequest, service.ErrEmptyComment.Error()},
		{"wrapped not found", errors.Wrap(service.ErrVideoNotFound, "ctx"), http.StatusNotFound, service.ErrVideoNotFound.Error()},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, service.ErrForbidden.Error()},
		{"blocked", service.ErrUserBlocked, http.StatusForbidden, service.ErrUserBlocked.Error()},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, service.ErrInvalidCredentials.Error()},
		{"conflict", service.ErrSelfSubscription, http.StatusConflict, service.ErrSelfSubscription.Error()},
		{"vote race", service.ErrVoteConflict, http.StatusConflict, service.ErrVoteConflict.Error()},
		{"timeout", errors.Wrap(context.DeadlineExceeded, "查询视频失败"), http.StatusServiceUnavailable, "服务繁忙，请稍后重试"},
		{"unknown", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "操作失败"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			handleServiceError(c, logger.Log.WithField("test", tt.name), tt.err, "操作失败")

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMsg)
			}
		})
	}
}
