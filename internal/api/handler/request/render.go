package request

import (
	"time"

	"renderapi/internal/api/render"
)

// RenderOptions is the wire form of the per-request options. All fields
// are optional; the render core fills defaults and clamps ranges.
type RenderOptions struct {
	Width     int     `json:"width" validate:"omitempty,min=64,max=4096"`
	Height    int     `json:"height" validate:"omitempty,min=64,max=4096"`
	Format    string  `json:"format" validate:"omitempty,oneof=png jpeg"`
	Quality   int     `json:"quality" validate:"omitempty,min=1,max=100"`
	Scale     float64 `json:"scale" validate:"omitempty,min=0.5,max=4"`
	TimeoutMs int     `json:"timeoutMs" validate:"omitempty,min=1"`
}

func (slf *RenderOptions) ToRenderOptions() render.Options {
	if slf == nil {
		return render.Options{}
	}
	return render.Options{
		Width:   slf.Width,
		Height:  slf.Height,
		Format:  render.Format(slf.Format),
		Quality: slf.Quality,
		Scale:   slf.Scale,
		Timeout: time.Duration(slf.TimeoutMs) * time.Millisecond,
	}
}

type ChartRender struct {
	render.PlotlyRequest
	Options *RenderOptions `json:"options"`
}

type GraphRender struct {
	render.DesmosRequest
	Options *RenderOptions `json:"options"`
}

type ConstructionRender struct {
	render.GeoGebraRequest
	Options *RenderOptions `json:"options"`
}

type DiagramRender struct {
	render.JSXGraphRequest
	Options *RenderOptions `json:"options"`
}
