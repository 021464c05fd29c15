package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter() (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(GinZapLogger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})
	return r, logs
}

func TestGinZapLogger_Levels(t *testing.T) {
	r, logs := newObservedRouter()

	cases := []struct {
		path    string
		level   zapcore.Level
		message string
	}{
		{"/ok?x=1", zapcore.InfoLevel, "Request completed"},
		{"/bad", zapcore.WarnLevel, "Client error"},
		{"/fail", zapcore.ErrorLevel, "Request error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

		entries := logs.TakeAll()
		require.Len(t, entries, 1, tc.path)
		assert.Equal(t, tc.level, entries[0].Level)
		assert.Equal(t, tc.message, entries[0].Message)
		assert.Equal(t, tc.path, entries[0].ContextMap()["path"])
	}
}

func TestGinZapLogger_SkipsHealthAndKeepsRequestID(t *testing.T) {
	r, logs := newObservedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 0, logs.Len())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}
