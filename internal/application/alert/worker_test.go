package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domalert "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	domoutbox "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/outbox"
	domserving "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/memory"
)

type captureSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (c *captureSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if c.handlers == nil {
		c.handlers = map[string]domoutbox.Handler{}
	}
	c.handlers[name] = h
}

type recordingSink struct {
	got []domalert.LowStockEvent
	err error
}

func (r *recordingSink) BroadcastLowStock(_ context.Context, e domalert.LowStockEvent) error {
	r.got = append(r.got, e)
	return r.err
}

func (r *recordingSink) NotifyLowStock(_ context.Context, e domalert.LowStockEvent) error {
	r.got = append(r.got, e)
	return r.err
}

type staticSettings settings.Settings

func (s staticSettings) Current(context.Context) (settings.Settings, error) {
	return settings.Settings(s), nil
}

var lowRice = domalert.LowStockEvent{
	AlertID: "a1", IngredientID: "rice", IngredientName: "Rice",
	Quantity: 1, MinimumQuantity: 3, Message: "Rice is below minimum quantity",
	OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
}

func startWorker(t *testing.T, s settings.Settings, hub, notifier *recordingSink) domoutbox.Handler {
	t.Helper()
	sub := &captureSubscriber{}
	var b Broadcaster
	var n Notifier
	if hub != nil {
		b = hub
	}
	if notifier != nil {
		n = notifier
	}
	NewWorker(sub, staticSettings(s), b, n, nil).Start()
	h, ok := sub.handlers["stock.low"]
	require.True(t, ok)
	return h
}

func TestWorkerDeliversToEnabledChannels(t *testing.T) {
	hub, sns := &recordingSink{}, &recordingSink{}
	h := startWorker(t, settings.Defaults(), hub, sns)

	require.NoError(t, h(context.Background(), lowRice))
	assert.Equal(t, []domalert.LowStockEvent{lowRice}, hub.got)
	assert.Equal(t, []domalert.LowStockEvent{lowRice}, sns.got)
}

func TestWorkerHonoursSettingsFlags(t *testing.T) {
	s := settings.Defaults()
	s.EnableRealTimeUpdates = false
	hub, sns := &recordingSink{}, &recordingSink{}
	h := startWorker(t, s, hub, sns)

	require.NoError(t, h(context.Background(), lowRice))
	assert.Empty(t, hub.got)
	assert.Len(t, sns.got, 1)

	s.EnableRealTimeUpdates, s.EnableNotifications = true, false
	hub, sns = &recordingSink{}, &recordingSink{}
	h = startWorker(t, s, hub, sns)
	require.NoError(t, h(context.Background(), lowRice))
	assert.Len(t, hub.got, 1)
	assert.Empty(t, sns.got)
}

func TestWorkerReportsDeliveryFailure(t *testing.T) {
	boom := errors.New("sns down")
	hub, sns := &recordingSink{}, &recordingSink{err: boom}
	h := startWorker(t, settings.Defaults(), hub, sns)

	err := h(context.Background(), lowRice)
	require.ErrorIs(t, err, boom)
	assert.Len(t, hub.got, 1, "other channels still receive the alert")
}

func TestWorkerIgnoresOtherEvents(t *testing.T) {
	h := startWorker(t, settings.Defaults(), &recordingSink{}, nil)
	assert.NoError(t, h(context.Background(), domserving.MealServedEvent{}))
}

func TestServiceListsAlerts(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	require.NoError(t, st.Alerts().Insert(ctx, domalert.NewLowStock("a1", "Rice", time.Now())))

	got, err := NewService(st, nil).List(ctx, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rice is below minimum quantity", got[0].Message)
}
