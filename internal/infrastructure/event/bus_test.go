package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingHandler collects the events it receives
type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     error
	panics   bool
}

func (h *recordingHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.received = append(h.received, ev)
	return h.fail
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func newTestEvent(eventType string) shared.DomainEvent {
	ev := shared.NewBaseDomainEvent(eventType, "test.aggregate", uuid.New())
	return &ev
}

// ============================================
// Event Bus Tests
// ============================================

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"billing.invoice.issued"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("billing.invoice.issued")))
	require.Len(t, handler.received, 1)
	assert.Equal(t, "billing.invoice.issued", handler.received[0].EventType())

	// Other event types do not reach the handler
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("billing.invoice.paid")))
	assert.Len(t, handler.received, 1)
}

func TestInMemoryEventBus_WildcardSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("billing.invoice.issued"),
		newTestEvent("billing.project.created")))
	assert.Len(t, handler.received, 2)
}

func TestInMemoryEventBus_HandlerErrorDoesNotPropagate(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"billing.invoice.issued"}, fail: errors.New("boom")}
	healthy := &recordingHandler{types: []string{"billing.invoice.issued"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	assert.NoError(t, bus.Publish(context.Background(), newTestEvent("billing.invoice.issued")))
	assert.Len(t, healthy.received, 1, "later handlers still run")
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{types: []string{"billing.invoice.issued"}, panics: true}
	bus.Subscribe(panicking)

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("billing.invoice.issued"))
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"billing.invoice.issued"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("billing.invoice.issued")))
	assert.Empty(t, handler.received)
}
