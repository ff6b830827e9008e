package render

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineManagerStartsUninitialized(t *testing.T) {
	manager := NewEngineManager(EngineConfig{}, zerolog.Nop())

	assert.False(t, manager.Ready())

	_, _, err := manager.NewPage()
	assert.Error(t, err)

	_, _, err = manager.PublishDocument("<html></html>")
	assert.Error(t, err)
}

func TestEngineManagerCloseIsIrreversible(t *testing.T) {
	manager := NewEngineManager(EngineConfig{}, zerolog.Nop())

	manager.Close()
	assert.False(t, manager.Ready())

	err := manager.EnsureReady()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	// A second close is a no-op.
	manager.Close()
}

func TestServiceHealthBeforeWarmUp(t *testing.T) {
	service := NewService(Config{}, zerolog.Nop())
	defer service.Close()

	health := service.Health()
	assert.Len(t, health.Ready, 4)
	for grammar, ready := range health.Ready {
		assert.False(t, ready, "grammar %s must not report ready before warm-up", grammar)
	}
	assert.GreaterOrEqual(t, health.UptimeSeconds, 0.0)
	assert.Positive(t, health.Goroutines)
}

func TestExecutorNotReadyAfterClose(t *testing.T) {
	manager := NewEngineManager(EngineConfig{}, zerolog.Nop())
	manager.Close()
	executor := NewExecutor(manager, 0, 0, zerolog.Nop())

	_, err := executor.Execute(context.Background(), Job{
		Tool:    "plotly",
		HTML:    "<html></html>",
		Options: Options{}.withDefaults(0, 0),
	})
	require.Error(t, err)
	re, ok := AsRenderError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotReady, re.Code)
}
