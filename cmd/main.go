package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"renderapi"
	"renderapi/internal/api/handler/endpoints"
	"renderapi/internal/api/render"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	renderapi.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)
	if renderapi.GetConfig().Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(renderapi.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rc := renderapi.GetConfig().Render
	service := render.NewService(render.Config{
		ChromePath:         rc.ChromePath,
		MaxTimeout:         rc.MaxTimeout,
		StabilizationDelay: rc.StabilizationDelay,
		PollInterval:       rc.PollInterval,
		ChartTimeout:       rc.ChartTimeout,
		GraphTimeout:       rc.GraphTimeout,
		GraphQuietPeriod:   rc.GraphQuietPeriod,
		GraphSettleCeiling: rc.GraphSettleCeiling,
		AppletTimeout:      rc.AppletTimeout,
		AppletBootTimeout:  rc.AppletBootTimeout,
		AppletSettleDelay:  rc.AppletSettleDelay,
		DiagramTimeout:     rc.DiagramTimeout,
	}, renderapi.Logger)
	defer service.Close()

	if renderapi.GetConfig().WarmStart {
		go func() {
			if err := service.WarmUp(); err != nil {
				renderapi.Logger.Error().Err(err).Msg("Render engines failed to warm up, requests will see not-ready")
			}
		}()
	}

	initAPI(router, service)

	renderapi.Logger.Debug().Msgf("Starting RENDER API on port %s", renderapi.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		renderapi.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

func initAPI(router *graceful.Graceful, service *render.Service) {
	endpoints.RenderHandler(router, service)
	endpoints.HealthHandler(router, service)
}
