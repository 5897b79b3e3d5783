package zone

import (
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/level"
	"github.com/xiaonanln/go-aoi"
)

// sectionTrigger is a trigger_section volume of the current floor
type sectionTrigger struct {
	section int
	origin  entity.Vector3
	radius  float64
	node    *aoiNode
	nearby  common.EntityIDSet
}

// aoiNode is either a trigger or a toon in the section tracker
type aoiNode struct {
	aoi     aoi.AOI
	tracker *sectionTracker
	trigger *sectionTrigger
	toon    common.EntityID
}

func (n *aoiNode) OnEnterAOI(other *aoi.AOI) {
	n.tracker.pair(n, other.Data.(*aoiNode), true)
}

func (n *aoiNode) OnLeaveAOI(other *aoi.AOI) {
	n.tracker.pair(n, other.Data.(*aoiNode), false)
}

// sectionTracker finds the toons close to section triggers. The AOI manager keeps the candidate pairs, the exact
// distance check against the trigger radius is done by inside.
type sectionTracker struct {
	slack    float64
	dist     aoi.Coord
	mgr      aoi.AOIManager
	triggers []*sectionTrigger
	toons    map[common.EntityID]*aoiNode
	onNear   func(trigger *sectionTrigger, toon common.EntityID)
}

func newSectionTracker(triggers []*level.Entity, slack float64, onNear func(*sectionTrigger, common.EntityID)) *sectionTracker {
	st := &sectionTracker{
		slack:  slack,
		toons:  map[common.EntityID]*aoiNode{},
		onNear: onNear,
	}
	maxRadius := 0.0
	for _, e := range triggers {
		t := &sectionTrigger{
			section: e.ValueInt("section"),
			origin:  e.Origin,
			radius:  e.ValueFloat("radius"),
			nearby:  common.EntityIDSet{},
		}
		if t.radius > maxRadius {
			maxRadius = t.radius
		}
		st.triggers = append(st.triggers, t)
	}
	st.dist = aoi.Coord(maxRadius + slack)
	st.mgr = aoi.NewXZListAOIManager(st.dist)
	for _, t := range st.triggers {
		t.node = &aoiNode{tracker: st, trigger: t}
		aoi.InitAOI(&t.node.aoi, st.dist, t.node, t.node)
		st.mgr.Enter(&t.node.aoi, aoi.Coord(t.origin.X), aoi.Coord(t.origin.Y))
	}
	return st
}

// trigger returns the trigger of the section
func (st *sectionTracker) trigger(section int) (*sectionTrigger, bool) {
	for _, t := range st.triggers {
		if t.section == section {
			return t, true
		}
	}
	return nil, false
}

// inside returns if pos is within the trigger radius plus the slack
func (st *sectionTracker) inside(t *sectionTrigger, pos entity.Vector3) bool {
	return float64(pos.DistanceTo(t.origin)) <= t.radius+st.slack
}

func (st *sectionTracker) pair(a, b *aoiNode, near bool) {
	t, toon := a.trigger, b.toon
	if t == nil {
		t, toon = b.trigger, a.toon
	}
	if t == nil || toon.IsNil() {
		return // two toons or two triggers
	}
	if !near {
		t.nearby.Del(toon)
		return
	}
	if t.nearby.Contains(toon) {
		return
	}
	t.nearby.Add(toon)
	if st.onNear != nil {
		st.onNear(t, toon)
	}
}

func (st *sectionTracker) enter(toon common.EntityID, pos entity.Vector3) {
	if _, ok := st.toons[toon]; ok {
		st.moved(toon, pos)
		return
	}
	n := &aoiNode{tracker: st, toon: toon}
	aoi.InitAOI(&n.aoi, st.dist, n, n)
	st.toons[toon] = n
	st.mgr.Enter(&n.aoi, aoi.Coord(pos.X), aoi.Coord(pos.Y))
}

// moved updates the toon and returns the triggers it is close to
func (st *sectionTracker) moved(toon common.EntityID, pos entity.Vector3) []*sectionTrigger {
	n, ok := st.toons[toon]
	if !ok {
		return nil
	}
	st.mgr.Moved(&n.aoi, aoi.Coord(pos.X), aoi.Coord(pos.Y))
	var res []*sectionTrigger
	for _, t := range st.triggers {
		if t.nearby.Contains(toon) {
			res = append(res, t)
		}
	}
	return res
}

func (st *sectionTracker) leave(toon common.EntityID) {
	n, ok := st.toons[toon]
	if !ok {
		return
	}
	st.mgr.Leave(&n.aoi)
	delete(st.toons, toon)
	for _, t := range st.triggers {
		t.nearby.Del(toon)
	}
}
