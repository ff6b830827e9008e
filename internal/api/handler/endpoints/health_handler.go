package endpoints

import (
	"net/http"

	"renderapi"
	"renderapi/internal/api/render"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type healthHandler struct {
	logger  zerolog.Logger
	service *render.Service
}

func HealthHandler(router *graceful.Graceful, service *render.Service) {
	h := &healthHandler{
		logger:  renderapi.Logger,
		service: service,
	}
	router.GET("/api/v1/health", h.health)
}

// health reports per-grammar readiness; 503 until every engine is up so
// load balancers hold traffic during warm-up.
func (slf *healthHandler) health(c *gin.Context) {
	status := slf.service.Health()

	code := http.StatusOK
	for _, ready := range status.Ready {
		if !ready {
			code = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, status)
}
