package render

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderErrorShape(t *testing.T) {
	err := timeoutError("plotly", []string{"log: drawing"})
	assert.Equal(t, CodeTimeout, err.Code)
	assert.Equal(t, []string{"log: drawing"}, err.Diagnostics)
	assert.Contains(t, err.Error(), "TIMEOUT")

	err = renderFailure("desmos", "bad latex", "ParseError", []string{"error: unexpected token"})
	assert.Equal(t, CodeRender, err.Code)
	assert.Contains(t, err.Error(), "bad latex")
	assert.Contains(t, err.Error(), "ParseError")
	assert.NotEmpty(t, err.Diagnostics, "diagnostics must never be swallowed")
}

func TestRenderErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("browser exited")
	err := notReadyError("engine unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "browser exited", err.Details)
}

func TestAsRenderError(t *testing.T) {
	wrapped := fmt.Errorf("render chart: %w", resourceError("creating page", nil))
	re, ok := AsRenderError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeResource, re.Code)

	_, ok = AsRenderError(errors.New("plain"))
	assert.False(t, ok)
}

func TestValidationError(t *testing.T) {
	err := validationError("element %q referenced before construction", "B")
	assert.Equal(t, CodeValidation, err.Code)
	assert.Contains(t, err.Message, `"B"`)
}
