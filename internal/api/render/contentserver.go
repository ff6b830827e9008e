package render

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContentServer serves generated documents to the browser over a real HTTP
// origin. Some runtimes (the geometry applet's WebGL boot path) refuse to
// execute from data: URLs, so those documents are published here instead.
//
// Every published document gets its own uuid token path and is removed when
// the owning render releases it, so concurrent renders can never be served
// each other's document.
type ContentServer struct {
	mu       sync.RWMutex
	docs     map[string]string
	listener net.Listener
	server   *http.Server
	baseURL  string
	logger   zerolog.Logger
}

func newContentServer(logger zerolog.Logger) *ContentServer {
	return &ContentServer{
		docs:   make(map[string]string),
		logger: logger,
	}
}

// Start binds an OS-assigned loopback port and begins serving. It must run
// before the browser launches so the base URL is resolvable at page load.
func (slf *ContentServer) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("binding content server: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/doc/", slf.serveDocument)

	slf.listener = listener
	slf.baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
	slf.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := slf.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slf.logger.Error().Err(err).Msg("Content server stopped unexpectedly")
		}
	}()

	slf.logger.Info().Str("baseUrl", slf.baseURL).Msg("Content server listening")
	return nil
}

// Publish stores html under a fresh token and returns its URL together with
// a release function the render must call on every exit path.
func (slf *ContentServer) Publish(html string) (string, func()) {
	token := uuid.NewString()

	slf.mu.Lock()
	slf.docs[token] = html
	slf.mu.Unlock()

	release := func() {
		slf.mu.Lock()
		delete(slf.docs, token)
		slf.mu.Unlock()
	}
	return slf.baseURL + "/doc/" + token, release
}

func (slf *ContentServer) serveDocument(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.URL.Path, "/doc/")

	slf.mu.RLock()
	html, ok := slf.docs[token]
	slf.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(html))
}

// BaseURL is empty until Start succeeds.
func (slf *ContentServer) BaseURL() string {
	return slf.baseURL
}

func (slf *ContentServer) Stop() {
	if slf.server != nil {
		_ = slf.server.Close()
	}
}
