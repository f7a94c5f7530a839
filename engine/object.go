package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"carball/physics"
)

// Object is an entity in the scene: an optional rigid body plus components.
// Objects without a body keep their own pose.
type Object struct {
	// Name identifies the object in logs and lookups
	Name string

	// Body is the physics body, or nil for pure transforms such as cameras
	Body *physics.Body

	scene      *Scene
	components []Component
	position   mgl64.Vec3
	rotation   mgl64.Quat
}

// NewObject creates an object around an optional body
func NewObject(name string, body *physics.Body) *Object {
	return &Object{
		Name:       name,
		Body:       body,
		components: make([]Component, 0, 4),
		rotation:   mgl64.QuatIdent(),
	}
}

// AddComponent attaches c to the object; if the object is already in a
// scene, c starts on the next tick
func (o *Object) AddComponent(c Component) {
	c.Attach(o)
	o.components = append(o.components, c)
	if o.scene != nil {
		o.scene.register(c)
	}
}

// Components returns the attached components
func (o *Object) Components() []Component {
	return o.components
}

// Scene returns the scene the object was added to, or nil
func (o *Object) Scene() *Scene {
	return o.scene
}

// Position returns the world position
func (o *Object) Position() mgl64.Vec3 {
	if o.Body != nil {
		return o.Body.Position
	}
	return o.position
}

// Rotation returns the world rotation
func (o *Object) Rotation() mgl64.Quat {
	if o.Body != nil {
		return o.Body.Rotation
	}
	return o.rotation
}

// Forward returns the facing direction (-Z in object space)
func (o *Object) Forward() mgl64.Vec3 {
	return o.Rotation().Rotate(mgl64.Vec3{0, 0, -1})
}

// SetPose moves the object; bodies are also brought to rest
func (o *Object) SetPose(position mgl64.Vec3, rotation mgl64.Quat) {
	if o.Body != nil {
		o.Body.Reset(position, rotation)
		return
	}
	o.position = position
	o.rotation = rotation.Normalize()
}
