// Package camera provides a virtual camera rig that follows and aims at
// scene targets, and the component that switches its focus between the
// player's car and the ball.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"carball/engine"
)

// BindingMode controls how FollowOffset is interpreted
type BindingMode int

const (
	// LockToTargetWithWorldUp rotates the offset by the follow target's yaw
	LockToTargetWithWorldUp BindingMode = iota
	// WorldSpace applies the offset in world axes
	WorldSpace
)

func (m BindingMode) String() string {
	switch m {
	case LockToTargetWithWorldUp:
		return "lock-to-target"
	case WorldSpace:
		return "world-space"
	}
	return "unknown"
}

// Target is anything with a world pose; *engine.Object satisfies it
type Target interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
}

var worldUp = mgl64.Vec3{0, 1, 0}

// Rig is a virtual camera. It runs in LateUpdate so it sees the final
// poses of the frame.
type Rig struct {
	engine.BaseComponent

	Follow       Target
	LookAt       Target
	Binding      BindingMode
	FollowOffset mgl64.Vec3

	// Damping is the position smoothing time constant in seconds; 0 snaps
	Damping float64

	FOV  float64 // vertical, degrees
	Near float64
	Far  float64

	position mgl64.Vec3
	aim      mgl64.Vec3
	placed   bool
}

// NewRig creates a rig trailing follow with the given offset
func NewRig(follow Target, offset mgl64.Vec3) *Rig {
	return &Rig{
		Follow:       follow,
		Binding:      LockToTargetWithWorldUp,
		FollowOffset: offset,
		FOV:          70,
		Near:         0.1,
		Far:          500,
		aim:          mgl64.Vec3{0, 0, -1},
	}
}

func (r *Rig) LateUpdate(dt float64) {
	r.Snap(dt)
}

// Snap moves the rig toward its desired pose; the first call places it
// exactly
func (r *Rig) Snap(dt float64) {
	if r.Follow == nil {
		return
	}

	desired := r.desiredPosition()
	if !r.placed || r.Damping <= 0 {
		r.position = desired
		r.placed = true
	} else {
		t := 1 - math.Exp(-dt/r.Damping)
		r.position = r.position.Add(desired.Sub(r.position).Mul(t))
	}

	var focus mgl64.Vec3
	if r.LookAt != nil {
		focus = r.LookAt.Position()
	} else {
		focus = r.Follow.Position().Add(forward(r.Follow.Rotation()))
	}
	if d := focus.Sub(r.position); d.Len() > 1e-9 {
		r.aim = d.Normalize()
	}

	if o := r.Object(); o != nil {
		o.SetPose(r.position, mgl64.QuatLookAtV(r.position, r.position.Add(r.aim), worldUp))
	}
}

func (r *Rig) desiredPosition() mgl64.Vec3 {
	base := r.Follow.Position()
	if r.Binding == WorldSpace {
		return base.Add(r.FollowOffset)
	}
	return base.Add(yaw(r.Follow.Rotation()).Rotate(r.FollowOffset))
}

// Position returns the camera's world position
func (r *Rig) Position() mgl64.Vec3 {
	return r.position
}

// Aim returns the unit view direction
func (r *Rig) Aim() mgl64.Vec3 {
	return r.aim
}

// View returns the world-to-camera matrix
func (r *Rig) View() mgl64.Mat4 {
	up := worldUp
	if math.Abs(r.aim.Dot(up)) > 0.999 {
		up = mgl64.Vec3{0, 0, -1}
	}
	return mgl64.LookAtV(r.position, r.position.Add(r.aim), up)
}

// Projection returns the perspective matrix for the given aspect ratio
func (r *Rig) Projection(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(r.FOV), aspect, r.Near, r.Far)
}

// WorldToScreen projects p into pixel coordinates of a w×h viewport.
// ok is false for points behind the near plane.
func (r *Rig) WorldToScreen(p mgl64.Vec3, w, h float64) (x, y float64, ok bool) {
	clip := r.Projection(w / h).Mul4(r.View()).Mul4x1(p.Vec4(1))
	if clip.W() < r.Near {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = (ndc.X() + 1) * 0.5 * w
	y = (1 - ndc.Y()) * 0.5 * h
	return x, y, true
}

func forward(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(mgl64.Vec3{0, 0, -1})
}

// yaw keeps only the heading of q
func yaw(q mgl64.Quat) mgl64.Quat {
	f := forward(q)
	if f.X()*f.X()+f.Z()*f.Z() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(math.Atan2(-f.X(), -f.Z()), worldUp)
}
