package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerMiddlewareCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	router.Use(ContextLogger(logger))
	router.Use(LoggerMiddleware(logger))
	router.GET("/ping", func(c *gin.Context) {
		FromContext(c.Request.Context(), logger).Info("handling")
		c.Status(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping?x=1", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var access map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "HTTP request", access["msg"])
	assert.Equal(t, "WARN", access["level"])
	assert.Equal(t, "req-42", access["request_id"])
	assert.Equal(t, "x=1", access["query"])
	assert.EqualValues(t, http.StatusTeapot, access["status"])
}

func TestFromContextFallback(t *testing.T) {
	fallback := NewSlogLogger(nil)
	assert.Same(t, fallback, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context(), fallback))
}
