package render

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const desmosCDN = "https://www.desmos.com/api/v1.10/calculator.js?apiKey=dcb31709b452b1cf9dc26972add0fda6"

// DesmosExpression is one graphed expression.
type DesmosExpression struct {
	ID        string `json:"id"`
	Latex     string `json:"latex" validate:"required"`
	Color     string `json:"color"`
	LineStyle string `json:"lineStyle" validate:"omitempty,oneof=SOLID DASHED DOTTED"`
	Hidden    bool   `json:"hidden"`
}

type DesmosViewport struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// DesmosRequest is the graphing-calculator grammar: a graph state made of
// an expression list, an optional viewport and display flags.
type DesmosRequest struct {
	Expressions []DesmosExpression `json:"expressions" validate:"required,min=1,dive"`
	Viewport    *DesmosViewport    `json:"viewport"`
	ShowGrid    *bool              `json:"showGrid"`
	ShowXAxis   *bool              `json:"showXAxis"`
	ShowYAxis   *bool              `json:"showYAxis"`
	DegreeMode  bool               `json:"degreeMode"`
}

// GenerateDesmosHTML builds the calculator document. The calculator has no
// native "finished drawing" event, so the document observes its change
// event and declares the render settled once quietPeriod passes with no
// change, or settleCeiling is reached, checked every 100ms.
func GenerateDesmosHTML(req DesmosRequest, width, height int, quietPeriod, settleCeiling time.Duration) (string, error) {
	payloads := make([]map[string]interface{}, 0, len(req.Expressions))
	for i, expr := range req.Expressions {
		id := expr.ID
		if id == "" {
			id = fmt.Sprintf("expr%d", i+1)
		}
		payload := map[string]interface{}{
			"id":     id,
			"latex":  expr.Latex,
			"hidden": expr.Hidden,
		}
		if expr.Color != "" {
			payload["color"] = expr.Color
		}
		if expr.LineStyle != "" {
			payload["lineStyle"] = expr.LineStyle
		}
		payloads = append(payloads, payload)
	}
	expressionsJSON, err := embedJSON(payloads)
	if err != nil {
		return "", err
	}

	settings := map[string]interface{}{}
	if req.ShowGrid != nil {
		settings["showGrid"] = *req.ShowGrid
	}
	if req.ShowXAxis != nil {
		settings["showXAxis"] = *req.ShowXAxis
	}
	if req.ShowYAxis != nil {
		settings["showYAxis"] = *req.ShowYAxis
	}
	settingsJSON, err := embedJSON(settings)
	if err != nil {
		return "", err
	}

	viewportJSON := "null"
	if req.Viewport != nil {
		viewportJSON, err = embedJSON(map[string]float64{
			"left":   req.Viewport.XMin,
			"right":  req.Viewport.XMax,
			"bottom": req.Viewport.YMin,
			"top":    req.Viewport.YMax,
		})
		if err != nil {
			return "", err
		}
	}

	degreeMode := "false"
	if req.DegreeMode {
		degreeMode = "true"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
%s
<script src="%s"></script>
<style>html, body { margin: 0; padding: 0; }</style>
</head>
<body>
<div id="calculator" style="width:%dpx;height:%dpx;"></div>
<script>
try {
  if (typeof Desmos === "undefined") {
    window.signalError("graphing library failed to load");
  } else {
    var elt = document.getElementById("calculator");
    var calculator = Desmos.GraphingCalculator(elt, {
      expressions: false,
      settingsMenu: false,
      zoomButtons: false,
      lockViewport: true,
      border: false,
      degreeMode: %s
    });
    var expressions = %s;
    for (var i = 0; i < expressions.length; i++) {
      calculator.setExpression(expressions[i]);
    }
    var settings = %s;
    calculator.updateSettings(settings);
    var viewport = %s;
    if (viewport) {
      calculator.setMathBounds(viewport);
    }
    var lastChange = Date.now();
    calculator.observeEvent("change", function () { lastChange = Date.now(); });
    var started = Date.now();
    var watcher = setInterval(function () {
      var now = Date.now();
      if (now - lastChange >= %d || now - started >= %d) {
        clearInterval(watcher);
        window.signalDone();
      }
    }, 100);
  }
} catch (err) {
  window.signalError("graph failed", err);
}
</script>
</body>
</html>
`, signalScaffold, desmosCDN, width, height, degreeMode,
		expressionsJSON, settingsJSON, viewportJSON,
		quietPeriod.Milliseconds(), settleCeiling.Milliseconds()), nil
}

// DesmosRenderer renders calculator graphs through the shared engine.
type DesmosRenderer struct {
	executor       *Executor
	logger         zerolog.Logger
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	quietPeriod    time.Duration
	settleCeiling  time.Duration
}

func NewDesmosRenderer(executor *Executor, defaultTimeout, maxTimeout, quietPeriod, settleCeiling time.Duration, logger zerolog.Logger) *DesmosRenderer {
	if quietPeriod <= 0 {
		quietPeriod = 200 * time.Millisecond
	}
	if settleCeiling <= 0 {
		settleCeiling = 3 * time.Second
	}
	return &DesmosRenderer{
		executor:       executor,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
		quietPeriod:    quietPeriod,
		settleCeiling:  settleCeiling,
	}
}

func (slf *DesmosRenderer) Render(ctx context.Context, req DesmosRequest, opts Options) (*RenderResult, error) {
	opts = opts.withDefaults(slf.defaultTimeout, slf.maxTimeout)
	html, err := GenerateDesmosHTML(req, opts.Width, opts.Height, slf.quietPeriod, slf.settleCeiling)
	if err != nil {
		return nil, validationError("generating graph document: %v", err)
	}
	return slf.executor.Execute(ctx, Job{
		Tool:    "desmos",
		HTML:    html,
		Options: opts,
		Enrich: func(meta *Metadata) {
			meta.Counts = map[string]int{"expressionCount": len(req.Expressions)}
		},
	})
}
