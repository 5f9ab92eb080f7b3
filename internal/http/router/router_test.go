package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "roofing_backend/internal/http"
	"roofing_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type testConfig struct{}

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return false }
func (testConfig) GetCORSOrigins() []string   { return []string{"http://localhost:4200"} }
func (testConfig) GetCORSAllowCreds() bool    { return true }
func (testConfig) GetJWTAccessSecret() string { return "secret" }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/echo", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newApp(health error) *apphttp.App {
	return &apphttp.App{
		Config:  testConfig{},
		Logger:  logger.Discard(),
		Health:  pinger{err: health},
		Modules: []apphttp.Module{echoModule{}},
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	New(newApp(nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	New(newApp(errors.New("db down"))).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestModulesMountBehindAuth(t *testing.T) {
	w := httptest.NewRecorder()
	New(newApp(nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
