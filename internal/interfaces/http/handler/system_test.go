package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func() error

func (f pingerFunc) PingContext(context.Context) error { return f() }

func serveSystem(h *SystemHandler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(&r.RouterGroup)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		w := serveSystem(NewSystemHandler(pingerFunc(func() error { return nil }), "1.2.0"), "/health")
		require.Equal(t, http.StatusOK, w.Code)

		var env envelope[HealthResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Success)
		assert.Equal(t, "ok", env.Data.Status)
		assert.Equal(t, "1.2.0", env.Data.Version)
		assert.NotEmpty(t, env.Data.GoVersion)
	})

	t.Run("unreachable database", func(t *testing.T) {
		w := serveSystem(NewSystemHandler(pingerFunc(func() error { return errors.New("connection refused") }), "1.2.0"), "/health")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var env envelope[HealthResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.False(t, env.Success)
		assert.Equal(t, "degraded", env.Data.Status)
		assert.Equal(t, "connection refused", env.Data.Database)
	})
}

func TestSystemHandler_Ping(t *testing.T) {
	w := serveSystem(NewSystemHandler(nil, "dev"), "/ping")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pong", data["message"])
}
