package endpoints

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"renderapi"
	"renderapi/internal/api/render"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) *graceful.Graceful {
	t.Helper()
	gin.SetMode(gin.TestMode)
	renderapi.Logger = zerolog.Nop()

	router, err := graceful.Default(graceful.WithAddr("127.0.0.1:0"))
	require.NoError(t, err)
	t.Cleanup(func() { router.Close() })

	service := render.NewService(render.Config{}, zerolog.Nop())
	t.Cleanup(service.Close)

	RenderHandler(router, service)
	HealthHandler(router, service)
	return router
}

func TestRenderChartRejectsMalformedBody(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/render/chart", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), string(render.CodeValidation))
}

func TestRenderChartRejectsEmptyTraceList(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/render/chart", strings.NewReader(`{"data":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// The drawable-item invariant is enforced here, upstream of the executor.
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthReportsNotReadyBeforeWarmUp(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"jsxgraph":false`)
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code render.ErrorCode
		want int
	}{
		{render.CodeValidation, http.StatusBadRequest},
		{render.CodeTimeout, http.StatusGatewayTimeout},
		{render.CodeRender, http.StatusUnprocessableEntity},
		{render.CodeNotReady, http.StatusServiceUnavailable},
		{render.CodeResource, http.StatusServiceUnavailable},
		{render.ErrorCode("???"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForCode(tt.code))
	}
}
