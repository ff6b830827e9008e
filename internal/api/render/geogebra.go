package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const geogebraCDN = "https://www.geogebra.org/apps/deployggb.js"

// GeoGebraStyle is a post-hoc style applied to a constructed object.
type GeoGebraStyle struct {
	Object       string   `json:"object" validate:"required"`
	Color        string   `json:"color" validate:"omitempty,hexcolor"`
	Thickness    int      `json:"thickness"`
	PointSize    int      `json:"pointSize"`
	Opacity      *float64 `json:"opacity"`
	Visible      *bool    `json:"visible"`
	LabelVisible *bool    `json:"labelVisible"`
}

type GeoGebraViewport struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// GeoGebraRequest is the dynamic-geometry grammar: an ordered list of
// construction commands plus post-hoc object styles.
type GeoGebraRequest struct {
	Commands []string         `json:"commands" validate:"required,min=1,dive,required"`
	Styles   []GeoGebraStyle  `json:"styles" validate:"omitempty,dive"`
	AppName  string           `json:"appName" validate:"omitempty,oneof=classic graphing geometry 3d"`
	ShowAxes *bool            `json:"showAxes"`
	ShowGrid *bool            `json:"showGrid"`
	Viewport *GeoGebraViewport `json:"viewport"`
}

// GenerateGeoGebraHTML builds the applet document. The applet's standard
// load callback is unreliable when served from a local origin, so the
// document polls for the global applet handle up to bootTimeout, then runs
// commands in declared order, applies styles, hides the interactive chrome
// through a perspective command, and waits settleDelay before signaling.
//
// This document only works over a real HTTP origin; the renderer always
// routes it through the content server.
func GenerateGeoGebraHTML(req GeoGebraRequest, width, height int, bootTimeout, settleDelay time.Duration) (string, error) {
	commandsJSON, err := embedJSON(req.Commands)
	if err != nil {
		return "", err
	}

	stylePayloads := make([]map[string]interface{}, 0, len(req.Styles))
	for _, style := range req.Styles {
		payload := map[string]interface{}{
			"object":       style.Object,
			"hasColor":     false,
			"r":            0,
			"g":            0,
			"b":            0,
			"thickness":    style.Thickness,
			"pointSize":    style.PointSize,
			"opacity":      style.Opacity,
			"visible":      style.Visible,
			"labelVisible": style.LabelVisible,
		}
		if style.Color != "" {
			r, g, b, err := parseHexColor(style.Color)
			if err != nil {
				return "", fmt.Errorf("style for %q: %w", style.Object, err)
			}
			payload["hasColor"] = true
			payload["r"], payload["g"], payload["b"] = r, g, b
		}
		stylePayloads = append(stylePayloads, payload)
	}
	stylesJSON, err := embedJSON(stylePayloads)
	if err != nil {
		return "", err
	}

	appName := req.AppName
	if appName == "" {
		appName = "classic"
	}

	showAxes := "true"
	if req.ShowAxes != nil && !*req.ShowAxes {
		showAxes = "false"
	}
	showGrid := "false"
	if req.ShowGrid != nil && *req.ShowGrid {
		showGrid = "true"
	}

	viewportJSON := "null"
	if req.Viewport != nil {
		viewportJSON, err = embedJSON(req.Viewport)
		if err != nil {
			return "", err
		}
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
<div id="applet"></div>
<script>
try {
  if (typeof GGBApplet === "undefined") {
    window.signalError("geometry applet library failed to load");
  } else {
    var applet = new GGBApplet({
      appName: %s,
      width: %d,
      height: %d,
      showToolBar: false,
      showAlgebraInput: false,
      showMenuBar: false,
      showResetIcon: false,
      enableRightClick: false,
      enableShiftDragZoom: false,
      preventFocus: true
    }, true);
    window.addEventListener("load", function () { applet.inject("applet"); });

    function applyStyle(api, s) {
      if (s.hasColor) { api.setColor(s.object, s.r, s.g, s.b); }
      if (s.thickness > 0) { api.setLineThickness(s.object, s.thickness); }
      if (s.pointSize > 0) { api.setPointSize(s.object, s.pointSize); }
      if (s.opacity !== null) { api.setFilling(s.object, s.opacity); }
      if (s.visible !== null) { api.setVisible(s.object, s.visible); }
      if (s.labelVisible !== null) { api.setLabelVisible(s.object, s.labelVisible); }
    }

    var bootStarted = Date.now();
    var boot = setInterval(function () {
      var api = window.ggbApplet;
      if (!api || typeof api.evalCommand !== "function") {
        if (Date.now() - bootStarted >= %d) {
          clearInterval(boot);
          window.signalError("applet did not initialize in time");
        }
        return;
      }
      clearInterval(boot);
      try {
        var commands = %s;
        for (var i = 0; i < commands.length; i++) {
          if (!api.evalCommand(commands[i])) {
            throw new Error("construction command failed: " + commands[i]);
          }
        }
        var styles = %s;
        for (var j = 0; j < styles.length; j++) {
          applyStyle(api, styles[j]);
        }
        api.setPerspective("G");
        api.setAxesVisible(%s, %s);
        api.setGridVisible(%s);
        var viewport = %s;
        if (viewport) {
          api.setCoordSystem(viewport.xmin, viewport.xmax, viewport.ymin, viewport.ymax);
        }
        setTimeout(function () { window.signalDone(); }, %d);
      } catch (err) {
        window.signalError("construction failed", err);
      }
    }, 200);
  }
} catch (err) {
  window.signalError("construction failed", err);
}
</script>
</body>
</html>
`, signalScaffold, geogebraCDN,
		jsString(appName), width, height,
		bootTimeout.Milliseconds(),
		commandsJSON, stylesJSON,
		showAxes, showAxes, showGrid,
		viewportJSON,
		settleDelay.Milliseconds()), nil
}

func parseHexColor(s string) (int, int, int, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("color %q must be #RRGGBB", s)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("color %q must be #RRGGBB", s)
	}
	return int(value >> 16 & 0xff), int(value >> 8 & 0xff), int(value & 0xff), nil
}

// GeoGebraRenderer renders applet constructions through the shared engine.
// Its documents always go through the content server: the applet refuses
// to boot its WebGL runtime from an inline data: URL.
type GeoGebraRenderer struct {
	executor       *Executor
	logger         zerolog.Logger
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	bootTimeout    time.Duration
	settleDelay    time.Duration
}

func NewGeoGebraRenderer(executor *Executor, defaultTimeout, maxTimeout, bootTimeout, settleDelay time.Duration, logger zerolog.Logger) *GeoGebraRenderer {
	if bootTimeout <= 0 {
		bootTimeout = 10 * time.Second
	}
	if settleDelay <= 0 {
		settleDelay = 2 * time.Second
	}
	return &GeoGebraRenderer{
		executor:       executor,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
		bootTimeout:    bootTimeout,
		settleDelay:    settleDelay,
	}
}

func (slf *GeoGebraRenderer) Render(ctx context.Context, req GeoGebraRequest, opts Options) (*RenderResult, error) {
	opts = opts.withDefaults(slf.defaultTimeout, slf.maxTimeout)
	html, err := GenerateGeoGebraHTML(req, opts.Width, opts.Height, slf.bootTimeout, slf.settleDelay)
	if err != nil {
		return nil, validationError("generating applet document: %v", err)
	}
	return slf.executor.Execute(ctx, Job{
		Tool:             "geogebra",
		HTML:             html,
		Options:          opts,
		UseContentServer: true,
		Enrich: func(meta *Metadata) {
			meta.Counts = geogebraCounts(req)
		},
	})
}

// commandCategories buckets construction commands for the metadata record.
var commandCategories = map[string]string{
	"Point":      "pointCommands",
	"Midpoint":   "pointCommands",
	"Intersect":  "pointCommands",
	"Centroid":   "pointCommands",
	"Line":       "lineCommands",
	"Segment":    "lineCommands",
	"Ray":        "lineCommands",
	"Vector":     "lineCommands",
	"Tangent":    "lineCommands",
	"Circle":     "circleCommands",
	"Semicircle": "circleCommands",
	"Ellipse":    "circleCommands",
	"Arc":        "circleCommands",
	"Polygon":    "polygonCommands",
	"Triangle":   "polygonCommands",
}

func geogebraCounts(req GeoGebraRequest) map[string]int {
	counts := map[string]int{
		"commandCount": len(req.Commands),
		"styleCount":   len(req.Styles),
	}
	for _, command := range req.Commands {
		category, ok := commandCategories[commandName(command)]
		if !ok {
			category = "otherCommands"
		}
		counts[category]++
	}
	return counts
}

// commandName extracts the construction function from a command like
// "c = Circle(A, 2)"; plain assignments like "a = 5" count as other.
func commandName(command string) string {
	body := command
	if idx := strings.Index(body, "="); idx >= 0 {
		body = body[idx+1:]
	}
	body = strings.TrimSpace(body)
	open := strings.Index(body, "(")
	if open <= 0 {
		return ""
	}
	return strings.TrimSpace(body[:open])
}
