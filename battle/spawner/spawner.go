// Package spawner plans the guards of a floor from the spawn points embedded in its level
package spawner

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/cogoffice/battlezone/battle/suit"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/level"
	"github.com/pkg/errors"
)

// Spawn point flags
const (
	FlagForceBoss        = 0x1
	FlagSpawnImmediately = 0x2
	FlagDontIgnore       = 0x4
	FlagNoHangout        = 0x8
)

// FirstSectionGuards is the fixed guard count of section 0
const FirstSectionGuards = 4

// FloorParams describes the building the floor belongs to
type FloorParams struct {
	Floor          int
	NumFloors      int
	Dept           suit.Dept
	LevelRange     suit.Range
	BossLevelRange suit.Range
	// GuardsPerSection is the inclusive count range of every section but section 0
	GuardsPerSection suit.Range
}

// IsLastFloor returns if the floor is the top floor of the building
func (p FloorParams) IsLastFloor() bool {
	return p.Floor == p.NumFloors-1
}

// Guard is one planned guard
type Guard struct {
	Section  int
	Plan     *suit.Plan
	Level    int
	Boss     bool
	Flags    int
	Position entity.Vector3
	Angles   entity.Vector3
	// Hangout is set when the guard waits at a hangout point instead of its spawn point
	Hangout bool
}

func (g *Guard) String() string {
	return fmt.Sprintf("Guard<%s|lvl %d|section %d>", g.Plan.Name, g.Level, g.Section)
}

// DontIgnore returns if the guard wakes up when attacked before its section is activated
func (g *Guard) DontIgnore() bool {
	return g.Flags&FlagDontIgnore != 0
}

// FloorPlan is the result of planning a floor
type FloorPlan struct {
	Level     *level.Level
	Info      *level.Entity
	Elevators [2]*level.Entity
	Triggers  []*level.Entity
	Counters  []*level.Entity
	// Guards in spawn order, section 0 first
	Guards []*Guard
}

// Sections returns the populated sections in ascending order
func (fp *FloorPlan) Sections() []int {
	seen := map[int]bool{}
	var res []int
	for _, g := range fp.Guards {
		if !seen[g.Section] {
			seen[g.Section] = true
			res = append(res, g.Section)
		}
	}
	sort.Ints(res)
	return res
}

// SectionGuards returns the guards of the section in spawn order
func (fp *FloorPlan) SectionGuards(section int) []*Guard {
	var res []*Guard
	for _, g := range fp.Guards {
		if g.Section == section {
			res = append(res, g)
		}
	}
	return res
}

// TauntGuard returns the index in Guards of the highest level guard of section 0, the first one on ties
func (fp *FloorPlan) TauntGuard() int {
	best := -1
	for i, g := range fp.Guards {
		if g.Section != 0 {
			continue
		}
		if best < 0 || g.Level > fp.Guards[best].Level {
			best = i
		}
	}
	return best
}

type spawnPoint struct {
	ent   *level.Entity
	flags int
}

// PlanFloor picks the guards of a floor
//
// Only spawn points flagged to spawn immediately are used. Section 0 gets exactly FirstSectionGuards guards, every
// other section a random count in params.GuardsPerSection. Missing floor info, a missing elevator or too few spawn
// points make the floor unplayable and are returned as errors.
func PlanFloor(lvl *level.Level, params FloorParams, rng *rand.Rand) (*FloorPlan, error) {
	infos := lvl.FindAllEntities(level.ClassFloorInfo)
	if len(infos) != 1 {
		return nil, errors.Errorf("%s: need exactly 1 %s, found %d", lvl, level.ClassFloorInfo, len(infos))
	}
	fp := &FloorPlan{
		Level:    lvl,
		Info:     infos[0],
		Triggers: lvl.FindAllEntities(level.ClassSectionTrigger),
		Counters: lvl.FindAllEntities(level.ClassLogicCounter),
	}
	for _, el := range lvl.FindAllEntities(level.ClassElevator) {
		idx := el.ValueInt("index")
		if idx < 0 || idx >= len(fp.Elevators) {
			return nil, errors.Errorf("%s: bad elevator index %d", lvl, idx)
		}
		fp.Elevators[idx] = el
	}
	for i, el := range fp.Elevators {
		if el == nil {
			return nil, errors.Errorf("%s: elevator %d is missing", lvl, i)
		}
	}

	bySection := map[int][]spawnPoint{}
	for _, sp := range lvl.FindAllEntities(level.ClassSuitSpawn) {
		flags := sp.ValueInt("spawnflags")
		if flags&FlagSpawnImmediately == 0 {
			continue
		}
		section := sp.ValueInt("section")
		bySection[section] = append(bySection[section], spawnPoint{sp, flags})
	}
	if len(bySection[0]) < FirstSectionGuards {
		return nil, errors.Errorf("%s: section 0 needs %d spawn points, found %d", lvl, FirstSectionGuards, len(bySection[0]))
	}
	sections := make([]int, 0, len(bySection))
	for s := range bySection {
		sections = append(sections, s)
	}
	sort.Ints(sections)

	hangouts := lvl.FindAllEntities(level.ClassHangoutPoint)
	levelRange := params.LevelRange
	if params.IsLastFloor() {
		levelRange = params.BossLevelRange
	}

	for _, section := range sections {
		points := bySection[section]
		count := FirstSectionGuards
		if section != 0 {
			lo, hi := params.GuardsPerSection.Min, params.GuardsPerSection.Max
			if hi < lo {
				hi = lo
			}
			if len(points) < lo {
				return nil, errors.Errorf("%s: section %d needs %d spawn points, found %d", lvl, section, lo, len(points))
			}
			count = lo + rng.Intn(hi-lo+1)
			if count > len(points) {
				count = len(points)
			}
		}

		chosen := rng.Perm(len(points))[:count]
		sort.Ints(chosen)
		for _, idx := range chosen {
			sp := points[idx]
			g := &Guard{
				Section:  section,
				Flags:    sp.flags,
				Position: sp.ent.Origin,
				Angles:   sp.ent.Angles,
			}
			if section == 0 && sp.flags&FlagNoHangout == 0 && len(hangouts) > 0 {
				i := rng.Intn(len(hangouts))
				g.Position = hangouts[i].Origin
				g.Angles = hangouts[i].Angles
				g.Hangout = true
				hangouts = append(hangouts[:i:i], hangouts[i+1:]...)
			}
			fp.Guards = append(fp.Guards, g)
		}
	}

	boss := -1
	for i, g := range fp.Guards {
		if g.Flags&FlagForceBoss != 0 {
			boss = i
			break
		}
	}
	if boss < 0 && params.IsLastFloor() {
		boss = 0 // section 0 comes first
	}

	for i, g := range fp.Guards {
		g.Boss = i == boss
		lvlNum, plans := suit.ChooseLevelAndGetAvailableSuits(levelRange, params.Dept, g.Boss, rng)
		if len(plans) == 0 {
			return nil, errors.Errorf("%s: no %s suits at level %d", lvl, params.Dept, lvlNum)
		}
		g.Level = lvlNum
		g.Plan = plans[rng.Intn(len(plans))]
	}
	return fp, nil
}
