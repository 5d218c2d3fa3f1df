package airshot

import (
	"math"

	"github.com/bzplugins/airshot/pkg/bzapi"
)

// Ballistics holds the server's shot constants at the moment of firing.
type Ballistics struct {
	MuzzleFront  float64
	MuzzleHeight float64
	ShotSpeed    float64
}

// ShotSpec is a server shot ready to be spawned.
type ShotSpec struct {
	Pos bzapi.Vec3
	Vel bzapi.Vec3
}

// MuzzlePosition returns where a tank's shots leave the barrel.
func MuzzlePosition(s bzapi.PlayerState, b Ballistics) bzapi.Vec3 {
	dir := bzapi.Vec3{X: math.Cos(s.Rotation), Y: math.Sin(s.Rotation)}
	return s.Pos.
		Add(dir.Scale(b.MuzzleFront)).
		Add(bzapi.Vec3{Z: b.MuzzleHeight})
}

// TiltedVelocity blends heading with the tank's horizontal momentum and tilts
// the result upward by angle radians. The server multiplies it by the shot speed.
// A non-positive shot speed drops the momentum term.
func TiltedVelocity(s bzapi.PlayerState, shotSpeed, angle float64) bzapi.Vec3 {
	fx, fy := math.Cos(s.Rotation), math.Sin(s.Rotation)
	if shotSpeed > 0 {
		fx += s.Velocity.X / shotSpeed
		fy += s.Velocity.Y / shotSpeed
	}
	c := math.Cos(angle)
	return bzapi.Vec3{
		X: fx * c,
		Y: fy * c,
		Z: math.Sin(angle),
	}
}

// ExtraShots computes the middle and top airshots: both leave the same
// muzzle, tilted by angle and 2*angle.
func ExtraShots(s bzapi.PlayerState, b Ballistics, angle float64) [2]ShotSpec {
	pos := MuzzlePosition(s, b)
	var shots [2]ShotSpec
	for i := range shots {
		shots[i] = ShotSpec{
			Pos: pos,
			Vel: TiltedVelocity(s, b.ShotSpeed, angle*float64(i+1)),
		}
	}
	return shots
}
