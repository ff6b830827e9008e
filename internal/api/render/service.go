package render

import (
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Config carries the engine and per-grammar tunables, injected from the
// application configuration.
type Config struct {
	ChromePath         string
	MaxTimeout         time.Duration
	StabilizationDelay time.Duration
	PollInterval       time.Duration
	ChartTimeout       time.Duration
	GraphTimeout       time.Duration
	GraphQuietPeriod   time.Duration
	GraphSettleCeiling time.Duration
	AppletTimeout      time.Duration
	AppletBootTimeout  time.Duration
	AppletSettleDelay  time.Duration
	DiagramTimeout     time.Duration
}

// Service wires the four grammar renderers. The chart, graph and applet
// renderers share one engine; the legacy diagram renderer gets its own
// isolated engine so new grammars cannot regress the original one.
type Service struct {
	shared *EngineManager
	legacy *EngineManager

	Plotly   *PlotlyRenderer
	Desmos   *DesmosRenderer
	GeoGebra *GeoGebraRenderer
	JSXGraph *JSXGraphRenderer

	logger    zerolog.Logger
	startedAt time.Time
}

func NewService(cfg Config, logger zerolog.Logger) *Service {
	shared := NewEngineManager(EngineConfig{
		ChromePath:        cfg.ChromePath,
		WithContentServer: true,
	}, logger)
	legacy := NewEngineManager(EngineConfig{
		ChromePath: cfg.ChromePath,
	}, logger)

	sharedExecutor := NewExecutor(shared, cfg.StabilizationDelay, cfg.PollInterval, logger)
	legacyExecutor := NewExecutor(legacy, cfg.StabilizationDelay, cfg.PollInterval, logger)

	return &Service{
		shared: shared,
		legacy: legacy,
		Plotly: NewPlotlyRenderer(sharedExecutor,
			orDuration(cfg.ChartTimeout, 10*time.Second), cfg.MaxTimeout, logger),
		Desmos: NewDesmosRenderer(sharedExecutor,
			orDuration(cfg.GraphTimeout, 15*time.Second), cfg.MaxTimeout,
			cfg.GraphQuietPeriod, cfg.GraphSettleCeiling, logger),
		GeoGebra: NewGeoGebraRenderer(sharedExecutor,
			orDuration(cfg.AppletTimeout, 30*time.Second), cfg.MaxTimeout,
			cfg.AppletBootTimeout, cfg.AppletSettleDelay, logger),
		JSXGraph: NewJSXGraphRenderer(legacyExecutor,
			orDuration(cfg.DiagramTimeout, 10*time.Second), cfg.MaxTimeout, logger),
		logger:    logger,
		startedAt: time.Now(),
	}
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}

// WarmUp initializes both engines eagerly instead of on first render.
func (slf *Service) WarmUp() error {
	var errs []error
	if err := slf.shared.EnsureReady(); err != nil {
		slf.logger.Error().Err(err).Msg("Shared render engine failed to warm up")
		errs = append(errs, err)
	}
	if err := slf.legacy.EnsureReady(); err != nil {
		slf.logger.Error().Err(err).Msg("Legacy render engine failed to warm up")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HealthStatus is the readiness surface the transport layer polls before
// accepting traffic.
type HealthStatus struct {
	Ready         map[string]bool `json:"ready"`
	UptimeSeconds float64         `json:"uptimeSeconds"`
	MemoryBytes   uint64          `json:"memoryBytes"`
	Goroutines    int             `json:"goroutines"`
}

func (slf *Service) Health() HealthStatus {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	sharedReady := slf.shared.Ready()
	return HealthStatus{
		Ready: map[string]bool{
			"plotly":   sharedReady,
			"desmos":   sharedReady,
			"geogebra": sharedReady,
			"jsxgraph": slf.legacy.Ready(),
		},
		UptimeSeconds: time.Since(slf.startedAt).Seconds(),
		MemoryBytes:   mem.Alloc,
		Goroutines:    runtime.NumGoroutine(),
	}
}

// Close shuts both engines down. Irreversible for the process lifetime.
func (slf *Service) Close() {
	slf.shared.Close()
	slf.legacy.Close()
}
