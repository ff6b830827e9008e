package render

import (
	"time"
)

// Format selects the screenshot encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600

	minDimension = 64
	maxDimension = 4096

	defaultQuality = 90
	defaultScale   = 1.0
	minScale       = 0.5
	maxScale       = 4.0
)

// Options controls a single render. Zero values are replaced by defaults
// inside the executor, so callers may pass Options{}.
type Options struct {
	Width   int
	Height  int
	Format  Format
	Quality int
	Scale   float64
	Timeout time.Duration
}

// withDefaults clamps the options into their supported ranges and fills
// the per-grammar default timeout.
func (slf Options) withDefaults(defaultTimeout, maxTimeout time.Duration) Options {
	if slf.Width == 0 {
		slf.Width = DefaultWidth
	}
	if slf.Height == 0 {
		slf.Height = DefaultHeight
	}
	slf.Width = clampInt(slf.Width, minDimension, maxDimension)
	slf.Height = clampInt(slf.Height, minDimension, maxDimension)

	if slf.Format != FormatJPEG {
		slf.Format = FormatPNG
	}
	if slf.Quality <= 0 || slf.Quality > 100 {
		slf.Quality = defaultQuality
	}
	if slf.Scale == 0 {
		slf.Scale = defaultScale
	}
	if slf.Scale < minScale {
		slf.Scale = minScale
	}
	if slf.Scale > maxScale {
		slf.Scale = maxScale
	}

	if slf.Timeout <= 0 {
		slf.Timeout = defaultTimeout
	}
	if maxTimeout > 0 && slf.Timeout > maxTimeout {
		slf.Timeout = maxTimeout
	}
	return slf
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Metadata describes a successful capture.
type Metadata struct {
	Tool         string         `json:"tool"`
	Format       Format         `json:"format"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	SizeBytes    int            `json:"sizeBytes"`
	RenderTimeMs int64          `json:"renderTimeMs"`
	Timestamp    time.Time      `json:"timestamp"`
	Counts       map[string]int `json:"counts,omitempty"`
}

// RenderResult pairs the captured image with its metadata. It is created
// once per successful render and handed to the caller as-is.
type RenderResult struct {
	Image    []byte
	Metadata Metadata
}
