package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renderapi/pkg"
)

func triangleConstruction() GeoGebraRequest {
	return GeoGebraRequest{
		Commands: []string{
			"A = Point(0, 0)",
			"B = Point(4, 0)",
			"C = Point(2, 3)",
			"t = Polygon(A, B, C)",
		},
		Styles: []GeoGebraStyle{
			{Object: "t", Color: "#1565c0", Opacity: pkg.ToPtr(0.4)},
			{Object: "A", PointSize: 5, LabelVisible: pkg.ToPtr(true)},
		},
	}
}

func TestGenerateGeoGebraHTML(t *testing.T) {
	html, err := GenerateGeoGebraHTML(triangleConstruction(), 800, 600, 10*time.Second, 2*time.Second)
	require.NoError(t, err)

	// Commands run in declared order.
	first := strings.Index(html, "A = Point(0, 0)")
	last := strings.Index(html, "t = Polygon(A, B, C)")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, last, 0)
	assert.Less(t, first, last)

	// Styles follow construction; chrome is hidden via the perspective.
	assert.Less(t, last, strings.Index(html, "applyStyle(api, styles[j])"))
	assert.Contains(t, html, `api.setPerspective("G")`)

	// Parsed color channels land in the style payload.
	assert.Contains(t, html, `"r":21`)
	assert.Contains(t, html, `"g":101`)
	assert.Contains(t, html, `"b":192`)

	// Boot poll window and settle delay from the tunables.
	assert.Contains(t, html, ">= 10000")
	assert.Contains(t, html, "}, 2000)")
}

func TestGenerateGeoGebraHTMLRejectsBadColor(t *testing.T) {
	req := triangleConstruction()
	req.Styles[0].Color = "#xyz"
	_, err := GenerateGeoGebraHTML(req, 800, 600, 10*time.Second, 2*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#RRGGBB")
}

func TestGenerateGeoGebraHTMLIsDeterministic(t *testing.T) {
	req := triangleConstruction()
	first, err := GenerateGeoGebraHTML(req, 800, 600, 10*time.Second, 2*time.Second)
	require.NoError(t, err)
	second, err := GenerateGeoGebraHTML(req, 800, 600, 10*time.Second, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		r, g, b int
		wantErr bool
	}{
		{input: "#ff0000", r: 255},
		{input: "00ff00", g: 255},
		{input: "#0000ff", b: 255},
		{input: "#1565c0", r: 21, g: 101, b: 192},
		{input: "#fff", wantErr: true},
		{input: "#gggggg", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, g, b, err := parseHexColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, [3]int{tt.r, tt.g, tt.b}, [3]int{r, g, b})
		})
	}
}

func TestGeoGebraCounts(t *testing.T) {
	counts := geogebraCounts(triangleConstruction())
	assert.Equal(t, 4, counts["commandCount"])
	assert.Equal(t, 2, counts["styleCount"])
	assert.Equal(t, 3, counts["pointCommands"])
	assert.Equal(t, 1, counts["polygonCommands"])

	counts = geogebraCounts(GeoGebraRequest{
		Commands: []string{"c = Circle((0,0), 2)", "s = Segment(A, B)", "a = 5"},
	})
	assert.Equal(t, 1, counts["circleCommands"])
	assert.Equal(t, 1, counts["lineCommands"])
	assert.Equal(t, 1, counts["otherCommands"])
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "Point", commandName("A = Point(1, 2)"))
	assert.Equal(t, "Circle", commandName("Circle(A, 3)"))
	assert.Equal(t, "", commandName("a = 5"))
	assert.Equal(t, "", commandName("SetColor"))
}
