package fsm

import (
	"testing"

	"github.com/bmizerany/assert"
)

func newTestFSM(trace *[]string) *FSM {
	hook := func(s string) func() {
		return func() { *trace = append(*trace, s) }
	}
	return New("test", []*State{
		{Name: "off", Enter: hook("enter off"), Exit: hook("exit off"), Next: []string{"on"}},
		{Name: "on", Enter: hook("enter on"), Exit: hook("exit on"), Next: []string{"off", "on"}},
		{Name: "broken", Next: []string{}},
	}, "off", "off")
}

func TestRequest(t *testing.T) {
	var trace []string
	m := newTestFSM(&trace)
	assert.Equal(t, "off", m.Current())
	assert.Equal(t, 0, len(trace))

	if err := m.Request("on"); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"exit off", "enter on"}, trace)
	assert.T(t, m.Is("off", "on"))

	if err := m.Request("broken"); err == nil {
		t.Fatalf("on -> broken should be rejected")
	}
	if err := m.Request("nowhere"); err == nil {
		t.Fatalf("unknown state should be rejected")
	}
	assert.Equal(t, "on", m.Current())

	// self transitions re-enter when listed
	trace = nil
	if err := m.Request("on"); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"exit on", "enter on"}, trace)
	assert.Equal(t, []string{"on", "on"}, m.History())
}

func TestRequestFromHookRejected(t *testing.T) {
	var m *FSM
	var nestedErr error
	m = New("nested", []*State{
		{Name: "a"},
		{Name: "b", Enter: func() { nestedErr = m.Request("a") }},
	}, "a", "a")
	if err := m.Request("b"); err != nil {
		t.Fatal(err)
	}
	if nestedErr == nil {
		t.Fatalf("request inside a hook should fail")
	}
	assert.Equal(t, "b", m.Current())
}

func TestRequestFinalState(t *testing.T) {
	var trace []string
	m := newTestFSM(&trace)
	m.RequestFinalState()
	assert.Equal(t, 0, len(trace))

	m.Request("on")
	trace = nil
	m.RequestFinalState()
	assert.Equal(t, []string{"exit on", "enter off"}, trace)
}
