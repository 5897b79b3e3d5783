// Package suit is the static roster of cog suit archetypes
package suit

import (
	"fmt"
	"math/rand"
)

// Dept is a cog department
type Dept string

// Departments
const (
	DeptBoss  Dept = "c"
	DeptLaw   Dept = "l"
	DeptCash  Dept = "m"
	DeptSales Dept = "s"
)

var deptNames = map[Dept]string{
	DeptBoss:  "Bossbot",
	DeptLaw:   "Lawbot",
	DeptCash:  "Cashbot",
	DeptSales: "Sellbot",
}

// Depts returns every department in roster order
func Depts() []Dept {
	return []Dept{DeptBoss, DeptLaw, DeptCash, DeptSales}
}

// IsValid returns if the department exists
func (d Dept) IsValid() bool {
	_, ok := deptNames[d]
	return ok
}

func (d Dept) String() string {
	if n, ok := deptNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Dept<%s>", string(d))
}

// Range is an inclusive level range
type Range struct {
	Min, Max int
}

// Contains returns if level is in the range
func (r Range) Contains(level int) bool {
	return level >= r.Min && level <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// Plan is one suit archetype
type Plan struct {
	ID         int
	Name       string
	Dept       Dept
	Tier       int
	LevelRange Range
}

func (p *Plan) String() string {
	return fmt.Sprintf("Suit<%s|%s>", p.Name, p.Dept)
}

// MaxHealth returns the health of a suit of this plan at the level
func MaxHealth(level int) int {
	return (level + 1) * (level + 2)
}

var tierRanges = [8]Range{{1, 5}, {2, 6}, {3, 7}, {4, 8}, {5, 9}, {6, 10}, {7, 11}, {8, 13}}

var roster []*Plan

func init() {
	names := map[Dept][8]string{
		DeptBoss:  {"Flunky", "Pencil Pusher", "Yesman", "Micromanager", "Downsizer", "Head Hunter", "Corporate Raider", "The Big Cheese"},
		DeptLaw:   {"Bottom Feeder", "Bloodsucker", "Double Talker", "Ambulance Chaser", "Back Stabber", "Spin Doctor", "Legal Eagle", "Big Wig"},
		DeptCash:  {"Short Change", "Penny Pincher", "Tightwad", "Bean Counter", "Number Cruncher", "Money Bags", "Loan Shark", "Robber Baron"},
		DeptSales: {"Cold Caller", "Telemarketer", "Name Dropper", "Glad Hander", "Mover & Shaker", "Two-Face", "The Mingler", "Mr. Hollywood"},
	}
	for _, dept := range Depts() {
		for tier, name := range names[dept] {
			roster = append(roster, &Plan{
				ID:         len(roster),
				Name:       name,
				Dept:       dept,
				Tier:       tier + 1,
				LevelRange: tierRanges[tier],
			})
		}
	}
}

// All returns every plan in roster order
func All() []*Plan {
	return append([]*Plan(nil), roster...)
}

// Get returns the plan of the id
func Get(id int) (*Plan, bool) {
	if id < 0 || id >= len(roster) {
		return nil, false
	}
	return roster[id], true
}

// ByDept returns the plans of the department in tier order
func ByDept(dept Dept) []*Plan {
	var res []*Plan
	for _, p := range roster {
		if p.Dept == dept {
			res = append(res, p)
		}
	}
	return res
}

// ChooseLevelAndGetAvailableSuits draws a level from levelRange and returns it with the plans of the department
// available at that level. Bosses always get the top of the range.
func ChooseLevelAndGetAvailableSuits(levelRange Range, dept Dept, boss bool, rng *rand.Rand) (int, []*Plan) {
	lo, hi := levelRange.Min, levelRange.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if boss {
		lo = hi
	}
	level := lo + rng.Intn(hi-lo+1)

	var plans []*Plan
	for _, p := range ByDept(dept) {
		if p.LevelRange.Contains(level) {
			plans = append(plans, p)
		}
	}
	return level, plans
}

var taunts = map[Dept][]string{
	DeptBoss: {
		"I'm afraid you're not on the agenda.",
		"Let's call this meeting to order.",
		"You're fired!",
		"Time for your performance review.",
	},
	DeptLaw: {
		"Objection!",
		"I'll see you in court.",
		"You have the right to remain silent.",
		"Case closed.",
	},
	DeptCash: {
		"Time to pay up.",
		"Your account is overdrawn.",
		"I'm calling in your loan.",
		"Let's settle this.",
	},
	DeptSales: {
		"Have I got a deal for you!",
		"Sign on the dotted line.",
		"This offer won't last.",
		"No refunds!",
	},
}

// Taunts returns the face-off lines of the department
func Taunts(dept Dept) []string {
	return taunts[dept]
}

// PickTaunt returns a random face-off line index of the department
func PickTaunt(dept Dept, rng *rand.Rand) int {
	n := len(taunts[dept])
	if n == 0 {
		return 0
	}
	return rng.Intn(n)
}
