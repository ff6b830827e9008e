package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	jsxgraphJS  = "https://cdn.jsdelivr.net/npm/jsxgraph@1.10.1/distrib/jsxgraphcore.js"
	jsxgraphCSS = "https://cdn.jsdelivr.net/npm/jsxgraph@1.10.1/distrib/jsxgraph.css"
)

type JSXGraphBoard struct {
	BoundingBox     []float64 `json:"boundingBox" validate:"omitempty,len=4"`
	ShowAxes        *bool     `json:"showAxes"`
	ShowGrid        bool      `json:"showGrid"`
	KeepAspectRatio bool      `json:"keepAspectRatio"`
}

// JSXGraphElement is one declarative element. Args may hold literals,
// "expr:"-prefixed expressions, identifiers of earlier elements, or arrays
// of those.
type JSXGraphElement struct {
	Type       string                 `json:"type" validate:"required"`
	ID         string                 `json:"id"`
	Args       []interface{}          `json:"args"`
	Attributes map[string]interface{} `json:"attributes"`
}

// JSXGraphRequest is the legacy 2D-geometry grammar: a board configuration
// plus an ordered element list whose order encodes construction
// dependencies.
type JSXGraphRequest struct {
	Board    JSXGraphBoard     `json:"board"`
	Elements []JSXGraphElement `json:"elements" validate:"required,min=1,dive"`
}

// GenerateJSXGraphHTML interprets the element list into an imperative
// construction sequence. Identifier resolution is eager and strictly
// left-to-right: an element may only reference identifiers constructed
// earlier, and a sole array argument is flattened exactly one level.
func GenerateJSXGraphHTML(req JSXGraphRequest, width, height int) (string, error) {
	declared := make(map[string]bool, len(req.Elements))
	ids := make([]string, len(req.Elements))
	for i, element := range req.Elements {
		id := element.ID
		if id == "" {
			id = fmt.Sprintf("elem%d", i+1)
		}
		if declared[id] {
			return "", fmt.Errorf("duplicate element identifier %q", id)
		}
		declared[id] = true
		ids[i] = id
	}

	handles := make(map[string]string, len(req.Elements))
	statements := make([]string, 0, len(req.Elements))
	for i, element := range req.Elements {
		args := element.Args
		if len(args) == 1 {
			if sole, ok := args[0].([]interface{}); ok {
				args = sole
			}
		}

		resolved := make([]string, len(args))
		for j, arg := range args {
			value, err := resolveElementArg(arg, handles, declared)
			if err != nil {
				return "", fmt.Errorf("element %q: %w", ids[i], err)
			}
			resolved[j] = value
		}

		attrs := element.Attributes
		if attrs == nil {
			attrs = map[string]interface{}{}
		}
		attrsJSON, err := embedJSON(attrs)
		if err != nil {
			return "", err
		}

		handle := fmt.Sprintf("el%d", i+1)
		statements = append(statements, fmt.Sprintf("  var %s = board.create(%s, [%s], %s);",
			handle, jsString(element.Type), strings.Join(resolved, ", "), attrsJSON))
		handles[ids[i]] = handle
	}

	boundingBox := req.Board.BoundingBox
	if len(boundingBox) != 4 {
		boundingBox = []float64{-5, 5, 5, -5}
	}
	axis := true
	if req.Board.ShowAxes != nil {
		axis = *req.Board.ShowAxes
	}
	boardJSON, err := embedJSON(map[string]interface{}{
		"boundingbox":     boundingBox,
		"axis":            axis,
		"grid":            req.Board.ShowGrid,
		"keepaspectratio": req.Board.KeepAspectRatio,
		"showCopyright":   false,
		"showNavigation":  false,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
%s
<link rel="stylesheet" href="%s">
<script src="%s"></script>
<style>html, body { margin: 0; padding: 0; background: #ffffff; }</style>
</head>
<body>
<div id="board" class="jxgbox" style="width:%dpx;height:%dpx;"></div>
<script>
try {
  if (typeof JXG === "undefined") {
    window.signalError("geometry library failed to load");
  } else {
    var board = JXG.JSXGraph.initBoard("board", %s);
%s
    board.update();
    window.signalDone();
  }
} catch (err) {
  window.signalError("construction failed", err);
}
</script>
</body>
</html>
`, signalScaffold, jsxgraphCSS, jsxgraphJS, width, height, boardJSON, strings.Join(statements, "\n")), nil
}

// resolveElementArg turns one declarative argument into JS source. A string
// is a reference iff it names a declared element; referencing an element
// that is declared but not yet constructed is the forward-reference error.
func resolveElementArg(arg interface{}, handles map[string]string, declared map[string]bool) (string, error) {
	switch v := arg.(type) {
	case string:
		if strings.HasPrefix(v, exprMarker) {
			return translateExpression(strings.TrimPrefix(v, exprMarker), handles)
		}
		if handle, ok := handles[v]; ok {
			return handle, nil
		}
		if declared[v] {
			return "", fmt.Errorf("reference %q points to an element not yet constructed", v)
		}
		return jsString(v), nil
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			resolved, err := resolveElementArg(item, handles, declared)
			if err != nil {
				return "", err
			}
			parts[i] = resolved
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return embedJSON(v)
	}
}

// JSXGraphRenderer serves the original grammar on its own engine instance:
// resource exhaustion or a crash in the shared browser cannot touch it,
// and vice versa.
type JSXGraphRenderer struct {
	executor       *Executor
	logger         zerolog.Logger
	defaultTimeout time.Duration
	maxTimeout     time.Duration
}

func NewJSXGraphRenderer(executor *Executor, defaultTimeout, maxTimeout time.Duration, logger zerolog.Logger) *JSXGraphRenderer {
	return &JSXGraphRenderer{
		executor:       executor,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
	}
}

func (slf *JSXGraphRenderer) Render(ctx context.Context, req JSXGraphRequest, opts Options) (*RenderResult, error) {
	opts = opts.withDefaults(slf.defaultTimeout, slf.maxTimeout)
	html, err := GenerateJSXGraphHTML(req, opts.Width, opts.Height)
	if err != nil {
		return nil, validationError("generating diagram document: %v", err)
	}
	return slf.executor.Execute(ctx, Job{
		Tool:    "jsxgraph",
		HTML:    html,
		Options: opts,
		Enrich: func(meta *Metadata) {
			meta.Counts = jsxgraphCounts(req)
		},
	})
}

func jsxgraphCounts(req JSXGraphRequest) map[string]int {
	counts := map[string]int{"elementCount": len(req.Elements)}
	for _, element := range req.Elements {
		counts[element.Type+"Elements"]++
	}
	return counts
}
