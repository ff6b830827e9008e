package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPointsAndLine() JSXGraphRequest {
	return JSXGraphRequest{
		Elements: []JSXGraphElement{
			{Type: "point", ID: "A", Args: []interface{}{1.0, 2.0}},
			{Type: "point", ID: "B", Args: []interface{}{3.0, 4.0}},
			{Type: "line", ID: "l", Args: []interface{}{[]interface{}{"A", "B"}}},
		},
	}
}

func TestGenerateJSXGraphHTMLResolvesReferences(t *testing.T) {
	html, err := GenerateJSXGraphHTML(twoPointsAndLine(), 800, 600)
	require.NoError(t, err)

	assert.Contains(t, html, `var el1 = board.create("point", [1, 2], {});`)
	assert.Contains(t, html, `var el2 = board.create("point", [3, 4], {});`)
	// Sole array argument is flattened one level before resolution.
	assert.Contains(t, html, `var el3 = board.create("line", [el1, el2], {});`)
}

func TestGenerateJSXGraphHTMLRejectsForwardReference(t *testing.T) {
	req := JSXGraphRequest{
		Elements: []JSXGraphElement{
			{Type: "line", ID: "l", Args: []interface{}{[]interface{}{"A", "B"}}},
			{Type: "point", ID: "A", Args: []interface{}{1.0, 2.0}},
			{Type: "point", ID: "B", Args: []interface{}{3.0, 4.0}},
		},
	}
	_, err := GenerateJSXGraphHTML(req, 800, 600)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet constructed")
}

func TestGenerateJSXGraphHTMLFlattensOnlySoleArrayArgument(t *testing.T) {
	req := JSXGraphRequest{
		Elements: []JSXGraphElement{
			{Type: "point", ID: "A", Args: []interface{}{0.0, 0.0}},
			{Type: "point", ID: "B", Args: []interface{}{1.0, 1.0}},
			{Type: "curve", ID: "c", Args: []interface{}{[]interface{}{"A", "B"}, "extra"}},
		},
	}
	html, err := GenerateJSXGraphHTML(req, 800, 600)
	require.NoError(t, err)

	// Two arguments: the array stays an array, the string stays a literal.
	assert.Contains(t, html, `board.create("curve", [[el1, el2], "extra"], {});`)
}

func TestGenerateJSXGraphHTMLUnknownStringIsLiteral(t *testing.T) {
	req := JSXGraphRequest{
		Elements: []JSXGraphElement{
			{Type: "text", ID: "t", Args: []interface{}{1.0, 1.0, "A label"}},
		},
	}
	html, err := GenerateJSXGraphHTML(req, 800, 600)
	require.NoError(t, err)
	assert.Contains(t, html, `board.create("text", [1, 1, "A label"], {});`)
}

func TestGenerateJSXGraphHTMLExpressionArgument(t *testing.T) {
	req := JSXGraphRequest{
		Elements: []JSXGraphElement{
			{Type: "functiongraph", ID: "f", Args: []interface{}{"expr:x^2"}},
		},
	}
	html, err := GenerateJSXGraphHTML(req, 800, 600)
	require.NoError(t, err)
	assert.Contains(t, html, "function (x) { return x**2; }")

	req.Elements[0].Args = []interface{}{"expr:alert(1)"}
	_, err = GenerateJSXGraphHTML(req, 800, 600)
	assert.Error(t, err)
}

func TestGenerateJSXGraphHTMLRejectsDuplicateIdentifiers(t *testing.T) {
	req := JSXGraphRequest{
		Elements: []JSXGraphElement{
			{Type: "point", ID: "A", Args: []interface{}{0.0, 0.0}},
			{Type: "point", ID: "A", Args: []interface{}{1.0, 1.0}},
		},
	}
	_, err := GenerateJSXGraphHTML(req, 800, 600)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestGenerateJSXGraphHTMLIsDeterministic(t *testing.T) {
	req := twoPointsAndLine()
	req.Board = JSXGraphBoard{ShowGrid: true, KeepAspectRatio: true}
	req.Elements[0].Attributes = map[string]interface{}{"name": "A", "size": 3, "color": "#ff0000"}

	first, err := GenerateJSXGraphHTML(req, 640, 480)
	require.NoError(t, err)
	second, err := GenerateJSXGraphHTML(req, 640, 480)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateJSXGraphHTMLScaffoldPrecedesLibrary(t *testing.T) {
	html, err := GenerateJSXGraphHTML(twoPointsAndLine(), 800, 600)
	require.NoError(t, err)

	scaffoldAt := strings.Index(html, "window.renderComplete = false")
	libraryAt := strings.Index(html, jsxgraphJS)
	require.GreaterOrEqual(t, scaffoldAt, 0)
	require.GreaterOrEqual(t, libraryAt, 0)
	assert.Less(t, scaffoldAt, libraryAt, "signal triplet must be declared before the library loads")
}

func TestJSXGraphCounts(t *testing.T) {
	counts := jsxgraphCounts(twoPointsAndLine())
	assert.Equal(t, 3, counts["elementCount"])
	assert.Equal(t, 2, counts["pointElements"])
	assert.Equal(t, 1, counts["lineElements"])
}
