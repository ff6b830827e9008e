package render

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const plotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// PlotlyRequest is the charting grammar: a list of traces plus an optional
// layout, handed to the library mostly as-is.
type PlotlyRequest struct {
	Traces []map[string]interface{} `json:"data" validate:"required,min=1"`
	Layout map[string]interface{}   `json:"layout"`
	Config map[string]interface{}   `json:"config"`
}

// GeneratePlotlyHTML builds the chart document. The library exposes a
// native completion promise, so the settle logic is just forwarding it to
// the signal triplet.
func GeneratePlotlyHTML(req PlotlyRequest, width, height int) (string, error) {
	traces, err := embedJSON(req.Traces)
	if err != nil {
		return "", err
	}

	layout := make(map[string]interface{}, len(req.Layout)+3)
	for k, v := range req.Layout {
		layout[k] = v
	}
	layout["width"] = width
	layout["height"] = height
	layout["autosize"] = false
	layoutJSON, err := embedJSON(layout)
	if err != nil {
		return "", err
	}

	cfg := make(map[string]interface{}, len(req.Config)+2)
	for k, v := range req.Config {
		cfg[k] = v
	}
	cfg["staticPlot"] = true
	cfg["displayModeBar"] = false
	cfgJSON, err := embedJSON(cfg)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
%s
<script src="%s"></script>
<style>html, body { margin: 0; padding: 0; background: #ffffff; }</style>
</head>
<body>
<div id="chart" style="width:%dpx;height:%dpx;"></div>
<script>
try {
  if (typeof Plotly === "undefined") {
    window.signalError("charting library failed to load");
  } else {
    var data = %s;
    var layout = %s;
    var config = %s;
    Plotly.newPlot("chart", data, layout, config).then(function () {
      window.signalDone();
    }).catch(function (err) {
      window.signalError("plot failed", err);
    });
  }
} catch (err) {
  window.signalError("plot failed", err);
}
</script>
</body>
</html>
`, signalScaffold, plotlyCDN, width, height, traces, layoutJSON, cfgJSON), nil
}

// PlotlyRenderer renders charts through the shared engine.
type PlotlyRenderer struct {
	executor       *Executor
	logger         zerolog.Logger
	defaultTimeout time.Duration
	maxTimeout     time.Duration
}

func NewPlotlyRenderer(executor *Executor, defaultTimeout, maxTimeout time.Duration, logger zerolog.Logger) *PlotlyRenderer {
	return &PlotlyRenderer{
		executor:       executor,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
	}
}

func (slf *PlotlyRenderer) Render(ctx context.Context, req PlotlyRequest, opts Options) (*RenderResult, error) {
	opts = opts.withDefaults(slf.defaultTimeout, slf.maxTimeout)
	html, err := GeneratePlotlyHTML(req, opts.Width, opts.Height)
	if err != nil {
		return nil, validationError("generating chart document: %v", err)
	}
	return slf.executor.Execute(ctx, Job{
		Tool:    "plotly",
		HTML:    html,
		Options: opts,
		Enrich: func(meta *Metadata) {
			meta.Counts = plotlyCounts(req)
		},
	})
}

func plotlyCounts(req PlotlyRequest) map[string]int {
	counts := map[string]int{"traceCount": len(req.Traces)}
	for _, trace := range req.Traces {
		traceType, _ := trace["type"].(string)
		if traceType == "" {
			traceType = "scatter"
		}
		counts[traceType+"Traces"]++
	}
	return counts
}
