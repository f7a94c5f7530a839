// Package engine hosts gameplay components: it owns the scene graph, drives
// the component lifecycle on variable and fixed ticks, dispatches physics
// contact events and runs delayed callbacks on the game clock.
package engine

import "carball/physics"

// Component is a script attached to an Object.
// Embed BaseComponent to satisfy it, then implement any lifecycle hooks.
type Component interface {
	Attach(o *Object)
	Object() *Object
}

// Starter is called once before the component's first tick
type Starter interface {
	Start() error
}

// Validator is called before Start; a failing component is disabled
type Validator interface {
	Validate() error
}

// Updater is called once per variable frame
type Updater interface {
	Update(dt float64)
}

// FixedUpdater is called once per fixed physics step, before the world steps
type FixedUpdater interface {
	FixedUpdate(dt float64)
}

// LateUpdater is called after Update and timers, once per variable frame
type LateUpdater interface {
	LateUpdate(dt float64)
}

// CollisionListener receives contact-enter events for its object's body
type CollisionListener interface {
	OnCollisionEnter(c physics.Collision)
}

// BaseComponent holds the owning object
type BaseComponent struct {
	object *Object
}

// Attach binds the component to its object
func (b *BaseComponent) Attach(o *Object) {
	b.object = o
}

// Object returns the owning object, or nil before attachment
func (b *BaseComponent) Object() *Object {
	return b.object
}
