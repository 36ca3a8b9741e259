package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRegistrar struct {
	path string
}

func (s stubRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(s.path, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("mw"))
	})
}

func TestRouter_Setup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	r := NewRouter(engine,
		WithAPIVersion("v2"),
		WithAPIMiddleware(func(c *gin.Context) {
			c.Set("mw", "api")
			c.Next()
		}),
	)
	r.Register(stubRegistrar{path: "/accounts"}).RegisterRoot(stubRegistrar{path: "/health"})
	r.Setup()
	assert.Equal(t, "v2", r.APIVersion())

	t.Run("api routes are versioned and get api middleware", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/accounts", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "api", w.Body.String())
	})

	t.Run("root routes skip api middleware", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("unknown route uses the error envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("wrong method is 405", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v2/accounts", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeMethod, resp.Error.Code)
	})
}

func TestNewRouter_DefaultVersion(t *testing.T) {
	assert.Equal(t, "v1", NewRouter(gin.New()).APIVersion())
}
