// Package physics answers ray queries against level geometry and the collision spheres of live entities.
//
// It is not a simulation: bodies never move on their own. Static boxes come from the loaded level, dynamic spheres
// follow entity positions and are updated by their owners.
package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/entity"
)

// Mask selects the kinds of bodies a ray can hit
type Mask uint32

const (
	// MaskWorld is level geometry
	MaskWorld Mask = 1 << iota
	// MaskAvatar is toons and suits
	MaskAvatar
	// MaskProjectile is thrown or launched attack entities
	MaskProjectile

	// MaskAll hits everything
	MaskAll = MaskWorld | MaskAvatar | MaskProjectile
)

// Surface kinds reported by hits, used to pick impact sounds
const (
	SurfaceDefault = "default"
	SurfaceFlesh   = "flesh"
	SurfaceMetal   = "metal"
	SurfaceWood    = "wood"
	SurfaceTile    = "tile"
)

// Hit is the closest body hit by a ray
type Hit struct {
	Owner    common.EntityID // nil for level geometry
	Position entity.Vector3
	Surface  string
	Distance entity.Coord
	Mask     Mask
}

func (h Hit) String() string {
	return fmt.Sprintf("Hit<%s@%s|%s|%.2f>", h.Owner, h.Position, h.Surface, h.Distance)
}

// RayCaster is the ray-cast service consumed by attack resolution
//
//go:generate mockgen -destination=mock_physics/mock_raycaster.go -package=mock_physics github.com/cogoffice/battlezone/engine/physics RayCaster
type RayCaster interface {
	// RayTestClosestNotMe returns the closest body between from and to, ignoring bodies owned by exclude
	RayTestClosestNotMe(exclude common.EntityID, from, to entity.Vector3, mask Mask) (Hit, bool)
}

type box struct {
	owner   common.EntityID
	mins    entity.Vector3
	maxs    entity.Vector3
	surface string
	mask    Mask
}

type sphere struct {
	owner   common.EntityID
	center  entity.Vector3
	radius  entity.Coord
	surface string
	mask    Mask
}

// World holds the collision bodies of one battle zone
type World struct {
	boxes   []*box
	spheres map[common.EntityID]*sphere
}

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{
		spheres: map[common.EntityID]*sphere{},
	}
}

// AddBox adds static geometry. Mins and maxs are sorted per axis.
func (w *World) AddBox(owner common.EntityID, mins, maxs entity.Vector3, surface string) {
	if surface == "" {
		surface = SurfaceDefault
	}
	lo := entity.Vector3{X: minCoord(mins.X, maxs.X), Y: minCoord(mins.Y, maxs.Y), Z: minCoord(mins.Z, maxs.Z)}
	hi := entity.Vector3{X: maxCoord(mins.X, maxs.X), Y: maxCoord(mins.Y, maxs.Y), Z: maxCoord(mins.Z, maxs.Z)}
	w.boxes = append(w.boxes, &box{owner: owner, mins: lo, maxs: hi, surface: surface, mask: MaskWorld})
}

// SetSphere adds or replaces the collision sphere of an entity
func (w *World) SetSphere(owner common.EntityID, center entity.Vector3, radius entity.Coord, surface string, mask Mask) {
	w.spheres[owner] = &sphere{owner: owner, center: center, radius: radius, surface: surface, mask: mask}
}

// MoveSphere moves the sphere of the entity, if it has one
func (w *World) MoveSphere(owner common.EntityID, center entity.Vector3) {
	if s, ok := w.spheres[owner]; ok {
		s.center = center
	}
}

// RemoveSphere removes the sphere of the entity
func (w *World) RemoveSphere(owner common.EntityID) {
	delete(w.spheres, owner)
}

// HasSphere returns if the entity has a collision sphere
func (w *World) HasSphere(owner common.EntityID) bool {
	_, ok := w.spheres[owner]
	return ok
}

// Reset removes every body
func (w *World) Reset() {
	w.boxes = nil
	w.spheres = map[common.EntityID]*sphere{}
}

// RayTestClosestNotMe implements RayCaster
func (w *World) RayTestClosestNotMe(exclude common.EntityID, from, to entity.Vector3, mask Mask) (Hit, bool) {
	dir := to.Sub(from)
	length := float64(dir.Length())
	if length == 0 {
		return Hit{}, false
	}
	dir = dir.Mul(entity.Coord(1 / length))

	best := math.Inf(1)
	var hit Hit
	found := false

	consider := func(t float64, owner common.EntityID, surface string, m Mask) {
		if t < 0 || t > length {
			return
		}
		if t < best || (t == best && owner < hit.Owner) {
			best = t
			hit = Hit{Owner: owner, Surface: surface, Distance: entity.Coord(t), Mask: m}
			found = true
		}
	}

	if mask&MaskWorld != 0 {
		for _, b := range w.boxes {
			if !exclude.IsNil() && b.owner == exclude {
				continue
			}
			if t, ok := rayBox(from, dir, b.mins, b.maxs); ok {
				consider(t, b.owner, b.surface, b.mask)
			}
		}
	}

	// iterate spheres in ID order so equal distances resolve the same way every time
	owners := make([]common.EntityID, 0, len(w.spheres))
	for owner := range w.spheres {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	for _, owner := range owners {
		s := w.spheres[owner]
		if owner == exclude || s.mask&mask == 0 {
			continue
		}
		if t, ok := raySphere(from, dir, s.center, s.radius); ok {
			consider(t, s.owner, s.surface, s.mask)
		}
	}

	if !found {
		return Hit{}, false
	}
	hit.Position = from.Add(dir.Mul(hit.Distance))
	return hit, true
}

func raySphere(origin, dir, center entity.Vector3, radius entity.Coord) (float64, bool) {
	oc := origin.Sub(center)
	b := float64(oc.Dot(dir))
	c := float64(oc.Dot(oc)) - float64(radius)*float64(radius)
	if c <= 0 {
		return 0, true // origin inside the sphere
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return 0, false
	}
	return t, true
}

func rayBox(origin, dir, mins, maxs entity.Vector3) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	o := [3]float64{float64(origin.X), float64(origin.Y), float64(origin.Z)}
	d := [3]float64{float64(dir.X), float64(dir.Y), float64(dir.Z)}
	lo := [3]float64{float64(mins.X), float64(mins.Y), float64(mins.Z)}
	hi := [3]float64{float64(maxs.X), float64(maxs.Y), float64(maxs.Z)}

	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}

func minCoord(a, b entity.Coord) entity.Coord {
	if a < b {
		return a
	}
	return b
}

func maxCoord(a, b entity.Coord) entity.Coord {
	if a > b {
		return a
	}
	return b
}
