package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

type engineState int

const (
	stateUninitialized engineState = iota
	stateReady
	stateClosed
)

// EngineConfig configures one browser instance.
type EngineConfig struct {
	// ChromePath overrides the browser binary lookup when set.
	ChromePath string
	// WithContentServer starts the ephemeral document server alongside the
	// browser. Only needed for grammars that cannot load data: URLs.
	WithContentServer bool
}

// EngineManager owns one headless browser process and, optionally, one
// ephemeral content server. Pages are the unit of isolation: every render
// gets its own tab via NewPage while the browser itself is shared.
//
// Lifecycle: uninitialized -> ready -> closed. Close is irreversible for
// the process lifetime. A failed initialization leaves the manager
// uninitialized so the condition surfaces as not-ready, not as a
// per-request retryable error.
type EngineManager struct {
	mu     sync.Mutex
	state  engineState
	cfg    EngineConfig
	logger zerolog.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	server        *ContentServer
}

func NewEngineManager(cfg EngineConfig, logger zerolog.Logger) *EngineManager {
	return &EngineManager{
		cfg:    cfg,
		logger: logger,
	}
}

// EnsureReady initializes the engine on first use. It is idempotent and
// safe to call from concurrent renders.
func (slf *EngineManager) EnsureReady() error {
	slf.mu.Lock()
	defer slf.mu.Unlock()

	switch slf.state {
	case stateReady:
		return nil
	case stateClosed:
		return fmt.Errorf("render engine is closed")
	}
	return slf.initializeLocked()
}

// initializeLocked starts the content server first, then the browser: the
// browser may resolve the server's URL during its very first navigation.
func (slf *EngineManager) initializeLocked() error {
	var server *ContentServer
	if slf.cfg.WithContentServer {
		server = newContentServer(slf.logger)
		if err := server.Start(); err != nil {
			return err
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("allow-insecure-localhost", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("force-color-profile", "srgb"),
	)
	if slf.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(slf.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Warm up: forces the browser process to actually launch.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		if server != nil {
			server.Stop()
		}
		return fmt.Errorf("launching browser: %w", err)
	}

	slf.allocCancel = allocCancel
	slf.browserCtx = browserCtx
	slf.browserCancel = browserCancel
	slf.server = server
	slf.state = stateReady
	slf.logger.Info().Bool("contentServer", server != nil).Msg("Render engine ready")
	return nil
}

// Ready reports readiness without triggering initialization.
func (slf *EngineManager) Ready() bool {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	return slf.state == stateReady
}

// NewPage hands out an isolated tab. The returned cancel tears the tab
// down and must be called on every exit path.
func (slf *EngineManager) NewPage() (context.Context, context.CancelFunc, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()

	if slf.state != stateReady {
		return nil, nil, fmt.Errorf("render engine not ready")
	}
	tabCtx, cancel := chromedp.NewContext(slf.browserCtx)
	return tabCtx, cancel, nil
}

// PublishDocument places html on the content server and returns a URL the
// browser can navigate to, plus the release function for it.
func (slf *EngineManager) PublishDocument(html string) (string, func(), error) {
	slf.mu.Lock()
	server := slf.server
	state := slf.state
	slf.mu.Unlock()

	if state != stateReady {
		return "", nil, fmt.Errorf("render engine not ready")
	}
	if server == nil {
		return "", nil, fmt.Errorf("render engine has no content server")
	}
	url, release := server.Publish(html)
	return url, release, nil
}

// Close shuts the browser and the content server down. Irreversible.
func (slf *EngineManager) Close() {
	slf.mu.Lock()
	defer slf.mu.Unlock()

	if slf.state == stateReady {
		slf.browserCancel()
		slf.allocCancel()
		if slf.server != nil {
			slf.server.Stop()
		}
		slf.logger.Info().Msg("Render engine closed")
	}
	slf.state = stateClosed
}
