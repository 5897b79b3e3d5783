package pubsub

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestPublishOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe("zone.1.OnFloorBegin", func(subject string, args ...interface{}) {
		got = append(got, "a")
	})
	bus.Subscribe("zone.1.*", func(subject string, args ...interface{}) {
		got = append(got, "b:"+subject)
	})
	bus.Subscribe("zone.1.OnFloorBegin", func(subject string, args ...interface{}) {
		got = append(got, "c")
	})
	bus.Subscribe("zone.2.*", func(subject string, args ...interface{}) {
		got = append(got, "never")
	})

	n := bus.Publish("zone.1.OnFloorBegin")
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b:zone.1.OnFloorBegin", "c"}, got)
}

func TestPublishArgs(t *testing.T) {
	bus := NewBus()
	var section int
	bus.Subscribe("floor.OnCogGroupDead", func(subject string, args ...interface{}) {
		section = args[0].(int)
	})
	bus.Publish("floor.OnCogGroupDead", 2)
	assert.Equal(t, 2, section)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	id := bus.Subscribe("x", func(subject string, args ...interface{}) { calls++ })
	assert.Equal(t, 1, bus.Publish("x"))
	bus.Unsubscribe(id)
	bus.Unsubscribe(id)
	assert.Equal(t, 0, bus.Publish("x"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Count())
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	var second SubID
	calls := 0
	bus.Subscribe("x", func(subject string, args ...interface{}) {
		calls++
		bus.Unsubscribe(second)
	})
	second = bus.Subscribe("x", func(subject string, args ...interface{}) {
		t.Fatalf("unsubscribed handler must not be called")
	})
	assert.Equal(t, 1, bus.Publish("x"))
	assert.Equal(t, 1, calls)
}

func TestHandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe("x", func(subject string, args ...interface{}) { panic("boom") })
	bus.Subscribe("x", func(subject string, args ...interface{}) { delivered = true })
	bus.Publish("x")
	assert.T(t, delivered)
}

func TestGlobalWildcard(t *testing.T) {
	bus := NewBus()
	var subjects []string
	bus.Subscribe("*", func(subject string, args ...interface{}) {
		subjects = append(subjects, subject)
	})
	bus.Publish("a.b.c")
	bus.Publish("d")
	assert.Equal(t, []string{"a.b.c", "d"}, subjects)
}
