// Package fsm is a classic named-state machine: one active state, enter and exit hooks, and an explicit table of
// allowed transitions per state.
package fsm

import (
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/pkg/errors"
)

// State declares one state of a machine
type State struct {
	Name  string
	Enter func()
	Exit  func()
	// Next lists the states reachable from this state. A nil list allows every state.
	Next []string
}

func (s *State) allows(to string) bool {
	if s.Next == nil {
		return true
	}
	for _, n := range s.Next {
		if n == to {
			return true
		}
	}
	return false
}

// FSM is a finite state machine
type FSM struct {
	name          string
	states        map[string]*State
	current       *State
	final         string
	transitioning bool
	history       []string
}

// New creates a machine in its initial state. The initial state's Enter hook is not called.
func New(name string, states []*State, initial string, final string) *FSM {
	m := &FSM{
		name:   name,
		states: map[string]*State{},
		final:  final,
	}
	for _, s := range states {
		m.states[s.Name] = s
	}
	init, ok := m.states[initial]
	if !ok {
		gwlog.Panicf("%s: initial state %s is not declared", name, initial)
	}
	if _, ok := m.states[final]; !ok {
		gwlog.Panicf("%s: final state %s is not declared", name, final)
	}
	m.current = init
	return m
}

func (m *FSM) String() string {
	return m.name + "<" + m.current.Name + ">"
}

// Current returns the name of the active state
func (m *FSM) Current() string {
	return m.current.Name
}

// Is returns if the active state is one of names
func (m *FSM) Is(names ...string) bool {
	for _, n := range names {
		if m.current.Name == n {
			return true
		}
	}
	return false
}

// Request moves to the state: the current state's Exit runs, then the new state's Enter
//
// Requests from inside an Enter or Exit hook are rejected, so hooks always see a settled machine.
func (m *FSM) Request(to string) error {
	if m.transitioning {
		return errors.Errorf("%s: request %s while transitioning", m, to)
	}
	next, ok := m.states[to]
	if !ok {
		return errors.Errorf("%s: unknown state %s", m, to)
	}
	if !m.current.allows(to) {
		return errors.Errorf("%s: transition to %s is not allowed", m, to)
	}

	m.transitioning = true
	defer func() { m.transitioning = false }()

	if m.current.Exit != nil {
		m.current.Exit()
	}
	m.current = next
	m.history = append(m.history, to)
	if next.Enter != nil {
		next.Enter()
	}
	return nil
}

// RequestFinalState moves to the final state from anywhere
func (m *FSM) RequestFinalState() {
	if m.current.Name == m.final {
		return
	}
	if m.transitioning {
		gwlog.Errorf("%s: final state requested while transitioning", m)
		return
	}
	m.transitioning = true
	defer func() { m.transitioning = false }()
	if m.current.Exit != nil {
		m.current.Exit()
	}
	m.current = m.states[m.final]
	m.history = append(m.history, m.final)
	if m.current.Enter != nil {
		m.current.Enter()
	}
}

// History returns every state entered since creation, in order
func (m *FSM) History() []string {
	return append([]string(nil), m.history...)
}
