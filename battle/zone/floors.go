package zone

import (
	"math/rand"

	"github.com/cogoffice/battlezone/engine/common"
)

// Floor layouts
const (
	FloorLobby     = "lobby"
	FloorExecutive = "executive"
	// RandomFloor is replaced by a random middle floor layout
	RandomFloor = "*"
)

// MiddleFloors is the layout pool of the floors between the lobby and the executive floor
var MiddleFloors = []string{"cubicles", "boardroom", "breakroom", "records"}

var floorTables = map[int][]string{
	1: {FloorExecutive},
	2: {FloorLobby, FloorExecutive},
	3: {FloorLobby, RandomFloor, FloorExecutive},
	4: {FloorLobby, RandomFloor, RandomFloor, FloorExecutive},
	5: {FloorLobby, RandomFloor, RandomFloor, RandomFloor, FloorExecutive},
}

// floorLayout returns the table entry of the floor, RandomFloor for middle floors
func floorLayout(floor, numFloors int) string {
	if table, ok := floorTables[numFloors]; ok && floor >= 0 && floor < len(table) {
		return table[floor]
	}
	switch {
	case floor == numFloors-1:
		return FloorExecutive
	case floor == 0:
		return FloorLobby
	}
	return RandomFloor
}

// pickFloor returns the layout of the floor. Middle floors are drawn uniformly from the layouts not visited yet,
// or from all middle layouts once every one has been visited.
func pickFloor(floor, numFloors int, visited common.StringSet, rng *rand.Rand) string {
	layout := floorLayout(floor, numFloors)
	if layout != RandomFloor {
		return layout
	}
	var candidates []string
	for _, name := range MiddleFloors {
		if !visited.Contains(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		candidates = MiddleFloors
	}
	return candidates[rng.Intn(len(candidates))]
}
