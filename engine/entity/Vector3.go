package entity

import (
	"fmt"
	"math"
)

// Coord is the of coordinations entity position (x, y, z)
type Coord float32

// Vector3 is type of entity position. Z is up.
type Vector3 struct {
	X Coord
	Y Coord
	Z Coord
}

func (p Vector3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}

// DistanceTo calculates distance between two positions
func (p Vector3) DistanceTo(o Vector3) Coord {
	return p.Sub(o).Length()
}

// Sub calculates Vector3 p - Vector3 o
func (p Vector3) Sub(o Vector3) Vector3 {
	return Vector3{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// Add calculates Vector3 p + Vector3 o
func (p Vector3) Add(o Vector3) Vector3 {
	return Vector3{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Mul calculates Vector3 p * m
func (p Vector3) Mul(m Coord) Vector3 {
	return Vector3{p.X * m, p.Y * m, p.Z * m}
}

// Dot calculates the dot product
func (p Vector3) Dot(o Vector3) Coord {
	return p.X*o.X + p.Y*o.Y + p.Z*o.Z
}

// Length returns the length of the vector
func (p Vector3) Length() Coord {
	return Coord(math.Sqrt(float64(p.Dot(p))))
}

// Normalize scales p to unit length. Zero vectors are left untouched.
func (p *Vector3) Normalize() {
	d := p.Length()
	if d == 0 {
		return
	}
	p.X /= d
	p.Y /= d
	p.Z /= d
}

// Normalized returns the unit vector of p
func (p Vector3) Normalized() Vector3 {
	p.Normalize()
	return p
}
