package observability

import (
	"context"
	"testing"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	"github.com/stretchr/testify/assert"
)

type countingCounter struct{ total float64 }

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.total += d }

func TestNewFallsBackToNops(t *testing.T) {
	p := New(nil, nil, nil, nil)

	assert.NotPanics(t, func() {
		ctx, span := p.Tracer().Start(context.Background(), "x")
		span.End()
		p.Logger().Info("hello")
		p.Metrics().Counter(observability.MUsecaseRequests).Add(1)
		p.Metrics().Histogram(observability.MUsecaseDuration).Observe(1)
		_ = ctx
	})
}

func TestMetricsResolveByKey(t *testing.T) {
	c := &countingCounter{}
	p := New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MPortionsServed: c,
		observability.MLowStockAlerts: nil,
	}, nil)

	p.Metrics().Counter(observability.MPortionsServed).Add(2)
	p.Metrics().Counter(observability.MLowStockAlerts).Add(5)
	assert.InDelta(t, 2, c.total, 1e-9)
}
