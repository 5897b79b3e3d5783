// Package attack implements weapons: the per-avatar attack state machine, ammo bookkeeping, damage falloff and the
// resolution of fired attacks against the avatars of a battle zone.
//
// The state machine is shared by both ends of the connection. An Executor decides what a transition means: the
// server's executor replicates every change to observers, the client's executor only plays cues.
package attack

import (
	"fmt"
	"time"

	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
)

var (
	// ThinkInterval is the period of the think tick of equipped attacks
	ThinkInterval = 100 * time.Millisecond
	// StrictIntegrity makes ammo bookkeeping faults panic instead of being clamped and logged
	StrictIntegrity = consts.DEBUG_MODE
)

// Host owns the clock and the timers of an attack, usually the avatar's entity
type Host interface {
	Now() time.Time
	AddTimer(d time.Duration, cb func()) entity.EntityTimerID
	CancelTimer(tid entity.EntityTimerID)
}

// Attack is one weapon bound to one avatar
type Attack struct {
	def  *Definition
	host Host
	exec Executor

	level        int
	maxClip      int
	clip         int
	maxAmmo      int
	ammo         int
	secondary    int
	maxSecondary int

	action        Action
	lastAction    Action
	actionStart   time.Time
	nextAction    Action
	hasNextAction bool

	equipped   bool
	thinkTimer entity.EntityTimerID
}

// New creates an unequipped attack with full ammo
func New(def *Definition, host Host, exec Executor) *Attack {
	return &Attack{
		def:          def,
		host:         host,
		exec:         exec,
		level:        1,
		maxClip:      def.MaxClip,
		clip:         def.MaxClip,
		maxAmmo:      def.MaxAmmo,
		ammo:         def.MaxAmmo,
		secondary:    def.MaxSecondary,
		maxSecondary: def.MaxSecondary,
		action:       ActionOff,
		lastAction:   ActionOff,
	}
}

func (a *Attack) String() string {
	return fmt.Sprintf("%s<%s|%d/%d>", a.def.Name, a.action, a.clip, a.ammo)
}

// Definition returns the attack's definition
func (a *Attack) Definition() *Definition {
	return a.def
}

// Kind returns the attack kind
func (a *Attack) Kind() Kind {
	return a.def.Kind
}

// Level returns the attack level
func (a *Attack) Level() int {
	return a.level
}

// SetLevel sets the attack level
func (a *Attack) SetLevel(level int) {
	a.level = level
}

func (a *Attack) now() time.Time {
	if a.host == nil {
		return time.Time{}
	}
	return a.host.Now()
}

// Equip starts the think tick and moves the attack from off to idle. Equipping twice returns false.
func (a *Attack) Equip() bool {
	if a.equipped {
		return false
	}
	a.equipped = true
	if !a.exec.Authoritative() {
		return true
	}

	if a.host != nil {
		a.thinkTimer = a.host.AddTimer(ThinkInterval, a.Think)
	}
	a.setAction(ActionIdle)
	if a.def.EquipAction != ActionIdle {
		a.SetNextAction(a.def.EquipAction)
	}
	return true
}

// UnEquip cancels the think tick and turns the attack off. Returns false if not equipped.
func (a *Attack) UnEquip() bool {
	if !a.equipped {
		return false
	}
	a.equipped = false
	if a.host != nil && a.thinkTimer.IsValid() {
		a.host.CancelTimer(a.thinkTimer)
	}
	a.thinkTimer = 0

	a.resetActions()
	if a.exec.Authoritative() {
		a.exec.ActionChanged(a)
	}
	return true
}

// IsEquipped returns if the attack is equipped
func (a *Attack) IsEquipped() bool {
	return a.equipped
}

func (a *Attack) resetActions() {
	a.action = ActionOff
	a.lastAction = ActionOff
	a.actionStart = time.Time{}
	a.hasNextAction = false
}

func (a *Attack) setAction(action Action) {
	a.actionStart = a.now()
	a.lastAction = a.action
	a.action = action
	if consts.DEBUG_ATTACKS {
		gwlog.Debugf("%s: %s -> %s", a, a.lastAction, a.action)
	}
	a.exec.ActionChanged(a)
}

// Action returns the current action
func (a *Attack) Action() Action {
	return a.action
}

// LastAction returns the action before the current one
func (a *Attack) LastAction() Action {
	return a.lastAction
}

// SetNextAction queues an action to start once the current one completes
func (a *Attack) SetNextAction(action Action) {
	a.nextAction = action
	a.hasNextAction = true
}

// NextAction returns the queued action, if any
func (a *Attack) NextAction() (Action, bool) {
	return a.nextAction, a.hasNextAction
}

// ActionTime returns how long the current action has been running
func (a *Attack) ActionTime() time.Duration {
	return a.now().Sub(a.actionStart)
}

// IsActionIndefinite returns if the current action only ends by request
func (a *Attack) IsActionIndefinite() bool {
	return a.def.ActionLength(a.action) == Indefinite
}

// IsActionComplete returns if the current finite action has run its length
func (a *Attack) IsActionComplete() bool {
	length := a.def.ActionLength(a.action)
	if length == Indefinite {
		return false
	}
	return a.ActionTime() >= length
}

func (a *Attack) determineNextAction(completed Action) Action {
	if a.def.NextAction == nil {
		return ActionIdle
	}
	return a.def.NextAction(a, completed)
}

// Think advances the state machine. It runs on every think tick while equipped.
func (a *Attack) Think() {
	if !a.equipped || !a.exec.Authoritative() {
		return
	}

	complete := a.IsActionComplete()
	if complete && !a.hasNextAction {
		next := a.determineNextAction(a.action)
		if a.action != next || next != ActionIdle {
			a.setAction(next)
		}
	} else if a.hasNextAction && (complete || a.IsActionIndefinite()) {
		next := a.nextAction
		a.hasNextAction = false
		a.setAction(next)
	}
}

// CanUse returns if the attack may fire now
func (a *Attack) CanUse() bool {
	if a.def.HasClip {
		if !a.HasClip() || !a.HasAmmo() {
			return false
		}
	} else if !a.HasAmmo() {
		return false
	}

	switch a.action {
	case ActionIdle:
		return true
	case ActionFire:
		return a.def.RefireDelay > 0 && a.ActionTime() >= a.def.RefireDelay
	}
	return false
}

// PrimaryFirePress fires the attack if it can be used, spending one round. Returns if it fired.
//
// Only the firing is decided here; the caller resolves what the shot hits.
func (a *Attack) PrimaryFirePress() bool {
	if !a.equipped || !a.CanUse() {
		return false
	}
	if a.def.HasClip {
		a.clip--
	}
	a.TakeAmmo(-1)
	a.hasNextAction = false
	a.setAction(ActionFire)
	return true
}

// ReloadPress queues a reload if the attack accepts one now
func (a *Attack) ReloadPress() bool {
	if !a.equipped || a.def.CanReload == nil || !a.def.CanReload(a) {
		return false
	}
	a.SetNextAction(ActionReload)
	return true
}

// checkCount guards the non-negative counters at the mutation site
func (a *Attack) checkCount(field string, v int) int {
	if v >= 0 {
		return v
	}
	if StrictIntegrity {
		gwlog.Panicf("%s: %s would become %d", a, field, v)
	}
	gwlog.Errorf("%s: %s would become %d, clamped to 0", a, field, v)
	return 0
}

// TakeAmmo adds amount (negative to spend) to the ammo and replicates the result
func (a *Attack) TakeAmmo(amount int) {
	v := a.checkCount("ammo", a.ammo+amount)
	if v > a.maxAmmo {
		v = a.maxAmmo
	}
	a.ammo = v
	a.exec.AmmoChanged(a)
}

// SetAmmo sets the ammo, limited to the max ammo, and replicates the result
func (a *Attack) SetAmmo(ammo int) {
	ammo = a.checkCount("ammo", ammo)
	if ammo > a.maxAmmo {
		ammo = a.maxAmmo
	}
	a.ammo = ammo
	a.exec.AmmoChanged(a)
}

// SetMaxAmmo sets the max ammo, lowering the ammo if needed, and replicates the result
func (a *Attack) SetMaxAmmo(maxAmmo int) {
	a.maxAmmo = a.checkCount("max ammo", maxAmmo)
	if a.ammo > a.maxAmmo {
		a.ammo = a.maxAmmo
	}
	a.exec.AmmoChanged(a)
}

// SetClip sets the clip, limited to the max clip, and replicates the result
func (a *Attack) SetClip(clip int) {
	clip = a.checkCount("clip", clip)
	if clip > a.maxClip {
		clip = a.maxClip
	}
	a.clip = clip
	a.exec.AmmoChanged(a)
}

// SetSecondaryAmmo sets the secondary ammo, limited to its max, and replicates the result
func (a *Attack) SetSecondaryAmmo(secondary int) {
	secondary = a.checkCount("secondary ammo", secondary)
	if secondary > a.maxSecondary {
		secondary = a.maxSecondary
	}
	a.secondary = secondary
	a.exec.AmmoChanged(a)
}

// Ammo returns the ammo
func (a *Attack) Ammo() int { return a.ammo }

// MaxAmmo returns the max ammo
func (a *Attack) MaxAmmo() int { return a.maxAmmo }

// Clip returns the rounds in the clip
func (a *Attack) Clip() int { return a.clip }

// MaxClip returns the clip size
func (a *Attack) MaxClip() int { return a.maxClip }

// SecondaryAmmo returns the secondary ammo
func (a *Attack) SecondaryAmmo() int { return a.secondary }

// MaxSecondaryAmmo returns the max secondary ammo
func (a *Attack) MaxSecondaryAmmo() int { return a.maxSecondary }

// HasAmmo returns if any ammo is left
func (a *Attack) HasAmmo() bool { return a.ammo > 0 }

// HasClip returns if the clip is not empty
func (a *Attack) HasClip() bool { return a.clip > 0 }

// HasSecondaryAmmo returns if any secondary ammo is left
func (a *Attack) HasSecondaryAmmo() bool { return a.secondary > 0 }

// IsClipFull returns if the clip is full
func (a *Attack) IsClipFull() bool { return a.clip >= a.maxClip }

// IsAmmoFull returns if the ammo is full
func (a *Attack) IsAmmoFull() bool { return a.ammo >= a.maxAmmo }

// NeedsReload returns if the clip is empty
func (a *Attack) NeedsReload() bool { return a.clip == 0 }

// AmmoValues returns the ammo snapshot replicated to clients
func (a *Attack) AmmoValues() Ammo {
	return Ammo{
		Ammo:         a.ammo,
		MaxAmmo:      a.maxAmmo,
		Secondary:    a.secondary,
		MaxSecondary: a.maxSecondary,
		Clip:         a.clip,
		MaxClip:      a.maxClip,
	}
}

// ApplyState sets the action replicated by the server. Authorization is not derived again.
func (a *Attack) ApplyState(action Action) {
	a.hasNextAction = false
	a.setAction(action)
}

// ApplyAmmo sets the ammo snapshot replicated by the server
func (a *Attack) ApplyAmmo(v Ammo) {
	a.maxAmmo = v.MaxAmmo
	a.ammo = v.Ammo
	a.maxSecondary = v.MaxSecondary
	a.secondary = v.Secondary
	a.maxClip = v.MaxClip
	a.clip = v.Clip
	a.exec.AmmoChanged(a)
}
