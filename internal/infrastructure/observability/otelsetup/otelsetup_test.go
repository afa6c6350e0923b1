package otelsetup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpointOnlyInstallsPropagator(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "kitchen-keeper"})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
}

func TestSetupWithEndpointInstallsProviders(t *testing.T) {
	// exporters connect lazily, so no collector is needed here
	p, err := Setup(context.Background(), Config{
		ServiceName: "kitchen-keeper",
		Endpoint:    "127.0.0.1:4318",
		AuthHeader:  "Basic abc",
		Insecure:    true,
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())
	assert.NotNil(t, p.TracerProvider)
	assert.NotNil(t, p.LoggerProvider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
	assert.Empty(t, p.shutdownFuncs)
}

func TestShutdownJoinsErrors(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	var order []string
	p := &Providers{shutdownFuncs: []func(context.Context) error{
		func(context.Context) error { order = append(order, "first"); return a },
		func(context.Context) error { order = append(order, "second"); return b },
	}}

	err := p.Shutdown(context.Background())

	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoError(t, (*Providers)(nil).Shutdown(context.Background()))
}
