package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler, "AlertRaised", "AlertResolved")
	registry.Register(handler, "AlertRaised")

	assert.Len(t, registry.GetHandlers("AlertRaised"), 1, "duplicate registration is ignored")
	assert.Len(t, registry.GetHandlers("AlertResolved"), 1)
	assert.Empty(t, registry.GetHandlers("AlertAcknowledged"))
	assert.Equal(t, []string{"AlertRaised", "AlertResolved"}, registry.EventTypes())
}

func TestHandlerRegistry_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := newTestHandler()
	wildcard := newTestHandler()

	registry.Register(specific, "AlertRaised")
	registry.Register(wildcard)
	registry.Register(wildcard, "AlertRaised")

	handlers := registry.GetHandlers("AlertRaised")
	assert.Len(t, handlers, 2, "a handler registered both ways is returned once")
	assert.Same(t, specific, handlers[0])

	assert.Len(t, registry.GetHandlers("Anything"), 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newTestHandler()
	b := newTestHandler()

	registry.Register(a, "AlertRaised", "AlertResolved")
	registry.Register(b, "AlertRaised")
	registry.Register(a)

	registry.Unregister(a)

	handlers := registry.GetHandlers("AlertRaised")
	assert.Len(t, handlers, 1)
	assert.Same(t, b, handlers[0])
	assert.Empty(t, registry.GetHandlers("AlertResolved"))
	assert.Equal(t, []string{"AlertRaised"}, registry.EventTypes())
}
