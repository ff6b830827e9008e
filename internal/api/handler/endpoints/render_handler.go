package endpoints

import (
	"net/http"

	"renderapi"
	"renderapi/internal/api/handler/request"
	"renderapi/internal/api/handler/response"
	"renderapi/internal/api/render"
	"renderapi/pkg"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type renderHandler struct {
	logger  zerolog.Logger
	service *render.Service
}

func RenderHandler(router *graceful.Graceful, service *render.Service) {
	h := &renderHandler{
		logger:  renderapi.Logger,
		service: service,
	}

	routes := router.Group("/api/v1/render")
	{
		routes.POST("/chart", h.renderChart)
		routes.POST("/graph", h.renderGraph)
		routes.POST("/construction", h.renderConstruction)
		routes.POST("/diagram", h.renderDiagram)
	}
}

func (slf *renderHandler) renderChart(c *gin.Context) {
	var req request.ChartRender
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.rejectRequest(c, "chart", err)
		return
	}
	result, err := slf.service.Plotly.Render(c.Request.Context(), req.PlotlyRequest, req.Options.ToRenderOptions())
	slf.respond(c, "chart", result, err)
}

func (slf *renderHandler) renderGraph(c *gin.Context) {
	var req request.GraphRender
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.rejectRequest(c, "graph", err)
		return
	}
	result, err := slf.service.Desmos.Render(c.Request.Context(), req.DesmosRequest, req.Options.ToRenderOptions())
	slf.respond(c, "graph", result, err)
}

func (slf *renderHandler) renderConstruction(c *gin.Context) {
	var req request.ConstructionRender
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.rejectRequest(c, "construction", err)
		return
	}
	result, err := slf.service.GeoGebra.Render(c.Request.Context(), req.GeoGebraRequest, req.Options.ToRenderOptions())
	slf.respond(c, "construction", result, err)
}

func (slf *renderHandler) renderDiagram(c *gin.Context) {
	var req request.DiagramRender
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.rejectRequest(c, "diagram", err)
		return
	}
	result, err := slf.service.JSXGraph.Render(c.Request.Context(), req.JSXGraphRequest, req.Options.ToRenderOptions())
	slf.respond(c, "diagram", result, err)
}

func (slf *renderHandler) rejectRequest(c *gin.Context, kind string, err error) {
	slf.logger.Error().Err(err).Str("kind", kind).Msg("Failed to parse render request")
	c.JSON(http.StatusBadRequest, response.NewRenderFailure(string(render.CodeValidation), err.Error()))
}

func (slf *renderHandler) respond(c *gin.Context, kind string, result *render.RenderResult, err error) {
	if err != nil {
		slf.logger.Error().Err(err).Str("kind", kind).Msg("Render failed")
		status, body := failureResponse(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, response.NewRenderSuccess(result))
}

func failureResponse(err error) (int, response.RenderFailure) {
	re, ok := render.AsRenderError(err)
	if !ok {
		return http.StatusInternalServerError, response.NewRenderFailure(string(render.CodeResource), err.Error())
	}
	body := response.RenderFailure{
		Error: response.RenderErrorBody{
			Code:        string(re.Code),
			Message:     re.Message,
			Details:     re.Details,
			Diagnostics: re.Diagnostics,
		},
	}
	return statusForCode(re.Code), body
}

func statusForCode(code render.ErrorCode) int {
	switch code {
	case render.CodeValidation:
		return http.StatusBadRequest
	case render.CodeTimeout:
		return http.StatusGatewayTimeout
	case render.CodeRender:
		return http.StatusUnprocessableEntity
	case render.CodeNotReady, render.CodeResource:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
