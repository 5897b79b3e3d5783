package attack

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xiaonanln/typeconv"
)

// Replicated field names
const (
	FieldAttackState = "setAttackState"
	FieldAttackAmmo  = "updateAttackAmmo"
)

// Ammo is the ammo snapshot of an attack
type Ammo struct {
	Ammo         int
	MaxAmmo      int
	Secondary    int
	MaxSecondary int
	Clip         int
	MaxClip      int
}

func (v Ammo) String() string {
	return fmt.Sprintf("clip %d/%d ammo %d/%d secondary %d/%d", v.Clip, v.MaxClip, v.Ammo, v.MaxAmmo, v.Secondary, v.MaxSecondary)
}

// Args returns the snapshot in wire order
func (v Ammo) Args() []interface{} {
	return []interface{}{v.Ammo, v.MaxAmmo, v.Secondary, v.MaxSecondary, v.Clip, v.MaxClip}
}

// AmmoFromArgs parses a snapshot in wire order. Non-numeric values panic.
func AmmoFromArgs(args []interface{}) (Ammo, error) {
	if len(args) != 6 {
		return Ammo{}, errors.Errorf("ammo snapshot needs 6 values, got %d", len(args))
	}
	var vals [6]int
	for i, arg := range args {
		vals[i] = int(typeconv.Int(arg))
	}
	return Ammo{
		Ammo:         vals[0],
		MaxAmmo:      vals[1],
		Secondary:    vals[2],
		MaxSecondary: vals[3],
		Clip:         vals[4],
		MaxClip:      vals[5],
	}, nil
}

// Executor decides what the state changes of an attack mean on this end of the connection
type Executor interface {
	// Authoritative returns if this end decides transitions, rather than applying replicated ones
	Authoritative() bool
	// ActionChanged is called after every action change
	ActionChanged(a *Attack)
	// AmmoChanged is called after every ammo mutation
	AmmoChanged(a *Attack)
}

// Replicator sends a field update to every observer of an entity
type Replicator interface {
	SendUpdate(field string, args ...interface{})
}

// ServerExecutor replicates every change through the owning avatar
type ServerExecutor struct {
	Owner Replicator
}

// Authoritative implements Executor
func (e ServerExecutor) Authoritative() bool {
	return true
}

// ActionChanged sends the new action tagged with the attack kind
func (e ServerExecutor) ActionChanged(a *Attack) {
	e.Owner.SendUpdate(FieldAttackState, int(a.Kind()), int(a.Action()))
}

// AmmoChanged sends the ammo snapshot
func (e ServerExecutor) AmmoChanged(a *Attack) {
	e.Owner.SendUpdate(FieldAttackAmmo, append([]interface{}{int(a.Kind())}, a.AmmoValues().Args()...)...)
}

// ClientExecutor plays cues for replicated changes and never replicates anything
type ClientExecutor struct {
	OnAction func(kind Kind, action Action)
	OnAmmo   func(kind Kind, ammo Ammo)
}

// Authoritative implements Executor
func (e ClientExecutor) Authoritative() bool {
	return false
}

// ActionChanged plays the action cue
func (e ClientExecutor) ActionChanged(a *Attack) {
	if e.OnAction != nil {
		e.OnAction(a.Kind(), a.Action())
	}
}

// AmmoChanged plays the ammo cue
func (e ClientExecutor) AmmoChanged(a *Attack) {
	if e.OnAmmo != nil {
		e.OnAmmo(a.Kind(), a.AmmoValues())
	}
}
