package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name         string
		pingErr      error
		expectedCode int
		expectedBody string
	}{
		{name: "database reachable", expectedCode: http.StatusOK, expectedBody: `{"status":"ok"}`},
		{name: "database unreachable", pingErr: errors.New("connection refused"), expectedCode: http.StatusServiceUnavailable, expectedBody: `{"status":"unavailable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinger := NewMockPinger(ctrl)
			pinger.EXPECT().PingContext(gomock.Any()).Return(tt.pingErr)

			rr := httptest.NewRecorder()
			NewHealthHandler(pinger)(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}
