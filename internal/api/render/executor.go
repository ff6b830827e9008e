package render

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Job is what a grammar renderer hands to the executor: a generated
// document plus the capabilities that differ per grammar.
type Job struct {
	Tool             string
	HTML             string
	Options          Options
	UseContentServer bool
	Enrich           func(meta *Metadata)
}

// Executor runs the one render algorithm shared by all grammars: acquire a
// page, load the document, poll the completion signal, inspect the signaled
// error, capture, and tear the page down on every exit path.
type Executor struct {
	manager       *EngineManager
	logger        zerolog.Logger
	stabilization time.Duration
	pollInterval  time.Duration
}

func NewExecutor(manager *EngineManager, stabilization, pollInterval time.Duration, logger zerolog.Logger) *Executor {
	if stabilization <= 0 {
		stabilization = 300 * time.Millisecond
	}
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &Executor{
		manager:       manager,
		logger:        logger,
		stabilization: stabilization,
		pollInterval:  pollInterval,
	}
}

type signaledError struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// Execute runs one render. Options must already carry their defaults.
func (slf *Executor) Execute(ctx context.Context, job Job) (*RenderResult, error) {
	start := time.Now()

	if err := slf.manager.EnsureReady(); err != nil {
		return nil, notReadyError("render engine unavailable", err)
	}

	tabCtx, closePage, err := slf.manager.NewPage()
	if err != nil {
		return nil, resourceError("creating page", err)
	}
	// The page dies with this cancel regardless of how the render ends.
	defer closePage()

	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(job.HTML))
	if job.UseContentServer {
		served, release, err := slf.manager.PublishDocument(job.HTML)
		if err != nil {
			return nil, resourceError("publishing document", err)
		}
		defer release()
		url = served
	}

	waitCtx, cancelWait := context.WithTimeout(tabCtx, job.Options.Timeout)
	defer cancelWait()

	if err := chromedp.Run(waitCtx,
		emulation.SetDeviceMetricsOverride(int64(job.Options.Width), int64(job.Options.Height), job.Options.Scale, false),
		chromedp.Navigate(url),
	); err != nil {
		if waitCtx.Err() != nil {
			return nil, timeoutError(job.Tool, slf.collectDiagnostics(tabCtx))
		}
		return nil, resourceError("loading document", err)
	}

	if err := slf.awaitCompletion(ctx, waitCtx, tabCtx, job.Tool); err != nil {
		return nil, err
	}

	if sigErr := slf.readSignaledError(waitCtx); sigErr != nil {
		return nil, renderFailure(job.Tool, sigErr.Message, sigErr.Details, slf.collectDiagnostics(tabCtx))
	}

	// Brief fixed delay so late paints land before the capture.
	select {
	case <-time.After(slf.stabilization):
	case <-waitCtx.Done():
		return nil, timeoutError(job.Tool, slf.collectDiagnostics(tabCtx))
	}

	buf, err := slf.capture(waitCtx, job.Options)
	if err != nil {
		if waitCtx.Err() != nil {
			return nil, timeoutError(job.Tool, slf.collectDiagnostics(tabCtx))
		}
		return nil, resourceError("capturing screenshot", err)
	}

	meta := Metadata{
		Tool:         job.Tool,
		Format:       job.Options.Format,
		Width:        job.Options.Width,
		Height:       job.Options.Height,
		SizeBytes:    len(buf),
		RenderTimeMs: time.Since(start).Milliseconds(),
		Timestamp:    time.Now().UTC(),
	}
	if job.Enrich != nil {
		job.Enrich(&meta)
	}

	slf.logger.Debug().
		Str("tool", job.Tool).
		Int("sizeBytes", meta.SizeBytes).
		Int64("renderTimeMs", meta.RenderTimeMs).
		Msg("Render complete")

	return &RenderResult{Image: buf, Metadata: meta}, nil
}

// awaitCompletion polls the completion boolean until it flips or the
// window expires. There is no cooperative cancellation inside the page;
// abandoning the wait and closing the tab is the cancellation.
func (slf *Executor) awaitCompletion(ctx, waitCtx, tabCtx context.Context, tool string) error {
	ticker := time.NewTicker(slf.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return timeoutError(tool, slf.collectDiagnostics(tabCtx))
		case <-waitCtx.Done():
			return timeoutError(tool, slf.collectDiagnostics(tabCtx))
		case <-ticker.C:
			var done bool
			if err := chromedp.Run(waitCtx, chromedp.Evaluate("window.renderComplete === true", &done)); err != nil {
				if waitCtx.Err() != nil {
					return timeoutError(tool, slf.collectDiagnostics(tabCtx))
				}
				return resourceError("polling completion signal", err)
			}
			if done {
				return nil
			}
		}
	}
}

func (slf *Executor) readSignaledError(waitCtx context.Context) *signaledError {
	var raw string
	if err := chromedp.Run(waitCtx, chromedp.Evaluate("JSON.stringify(window.renderError)", &raw)); err != nil {
		return nil
	}
	if raw == "" || raw == "null" {
		return nil
	}
	var sig signaledError
	if err := json.Unmarshal([]byte(raw), &sig); err != nil {
		return &signaledError{Message: raw}
	}
	return &sig
}

// collectDiagnostics reads the document's intercepted console output. The
// page may already be half torn down, so this runs under its own short
// deadline and failure just yields no diagnostics.
func (slf *Executor) collectDiagnostics(tabCtx context.Context) []string {
	harvestCtx, cancel := context.WithTimeout(tabCtx, time.Second)
	defer cancel()

	var messages []string
	if err := chromedp.Run(harvestCtx,
		chromedp.Evaluate("(window.consoleMessages || []).slice(-20)", &messages),
	); err != nil {
		return nil
	}
	return messages
}

func (slf *Executor) capture(waitCtx context.Context, opts Options) ([]byte, error) {
	var buf []byte
	action := chromedp.ActionFunc(func(cctx context.Context) error {
		params := page.CaptureScreenshot()
		if opts.Format == FormatJPEG {
			params = params.WithFormat(page.CaptureScreenshotFormatJpeg).WithQuality(int64(opts.Quality))
		} else {
			params = params.WithFormat(page.CaptureScreenshotFormatPng)
		}
		var err error
		buf, err = params.Do(cctx)
		return err
	})
	if err := chromedp.Run(waitCtx, action); err != nil {
		return nil, err
	}
	return buf, nil
}
