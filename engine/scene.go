package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"carball/physics"
)

// Options configures the scene clock
type Options struct {
	// FixedDelta is the physics step in seconds
	FixedDelta float64

	// MaxFixedSteps bounds catch-up steps per frame; excess time is dropped
	MaxFixedSteps int
}

// DefaultOptions returns a 50 Hz physics step with up to 8 catch-up steps
func DefaultOptions() Options {
	return Options{
		FixedDelta:    0.02,
		MaxFixedSteps: 8,
	}
}

type entry struct {
	c        Component
	started  bool
	disabled bool
}

// Scene owns objects and drives their components.
// It is not safe for concurrent use; all calls belong to the game loop.
type Scene struct {
	World  *physics.World
	Timers *Scheduler

	opts        Options
	log         zerolog.Logger
	objects     []*Object
	byBody      map[*physics.Body]*Object
	entries     []*entry
	accumulator float64
	frames      uint64
	steps       uint64
}

// NewScene creates a scene around a physics world
func NewScene(world *physics.World, opts Options, log zerolog.Logger) *Scene {
	if opts.FixedDelta <= 0 {
		opts.FixedDelta = DefaultOptions().FixedDelta
	}
	if opts.MaxFixedSteps <= 0 {
		opts.MaxFixedSteps = DefaultOptions().MaxFixedSteps
	}
	return &Scene{
		World:   world,
		Timers:  NewScheduler(),
		opts:    opts,
		log:     log.With().Str("component", "scene").Logger(),
		objects: make([]*Object, 0, 8),
		byBody:  make(map[*physics.Body]*Object),
	}
}

// Add puts an object and its body into the scene
func (s *Scene) Add(o *Object) error {
	if o.scene != nil {
		return fmt.Errorf("object %q already belongs to a scene", o.Name)
	}
	if o.Body != nil {
		if err := s.World.Add(o.Body); err != nil {
			return fmt.Errorf("adding object %q: %w", o.Name, err)
		}
		s.byBody[o.Body] = o
	}
	o.scene = s
	s.objects = append(s.objects, o)
	for _, c := range o.components {
		s.register(c)
	}
	return nil
}

// Find returns the first object with the given name
func (s *Scene) Find(name string) *Object {
	for _, o := range s.objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Objects returns all objects in insertion order
func (s *Scene) Objects() []*Object {
	return s.objects
}

// After schedules fn on the scene clock
func (s *Scene) After(delay float64, fn func()) TimerID {
	return s.Timers.After(delay, fn)
}

// Time returns the scene clock in seconds
func (s *Scene) Time() float64 {
	return s.Timers.Now()
}

// FixedDelta returns the physics step length
func (s *Scene) FixedDelta() float64 {
	return s.opts.FixedDelta
}

// Frames returns the number of variable ticks run so far
func (s *Scene) Frames() uint64 {
	return s.frames
}

// Steps returns the number of fixed steps run so far
func (s *Scene) Steps() uint64 {
	return s.steps
}

// Tick runs one variable frame of dt seconds: pending Start calls, zero or
// more fixed steps, Update, due timers, then LateUpdate
func (s *Scene) Tick(dt float64) {
	s.frames++
	s.startPending()

	s.accumulator += dt
	n := 0
	for s.accumulator+dueEpsilon >= s.opts.FixedDelta {
		if n == s.opts.MaxFixedSteps {
			s.log.Debug().Float64("dropped", s.accumulator).Msg("fixed step budget exhausted")
			s.accumulator = 0
			break
		}
		s.fixedStep()
		s.accumulator -= s.opts.FixedDelta
		n++
	}
	if s.accumulator < 0 {
		s.accumulator = 0
	}

	for _, e := range s.entries {
		if u, ok := e.c.(Updater); ok && e.started && !e.disabled {
			u.Update(dt)
		}
	}

	s.Timers.Advance(dt)

	for _, e := range s.entries {
		if u, ok := e.c.(LateUpdater); ok && e.started && !e.disabled {
			u.LateUpdate(dt)
		}
	}
}

// Close drops pending timers; in-flight delayed callbacks never run
func (s *Scene) Close() {
	s.Timers.Clear()
}

func (s *Scene) register(c Component) {
	s.entries = append(s.entries, &entry{c: c})
}

func (s *Scene) startPending() {
	for _, e := range s.entries {
		if e.started || e.disabled {
			continue
		}
		if err := s.start(e.c); err != nil {
			e.disabled = true
			s.log.Error().Err(err).Str("object", objectName(e.c)).Msg("component disabled")
			continue
		}
		e.started = true
	}
}

func (s *Scene) start(c Component) error {
	if v, ok := c.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate %T: %w", c, err)
		}
	}
	if st, ok := c.(Starter); ok {
		if err := st.Start(); err != nil {
			return fmt.Errorf("start %T: %w", c, err)
		}
	}
	return nil
}

func (s *Scene) fixedStep() {
	s.steps++
	dt := s.opts.FixedDelta
	for _, e := range s.entries {
		if f, ok := e.c.(FixedUpdater); ok && e.started && !e.disabled {
			f.FixedUpdate(dt)
		}
	}

	for _, contact := range s.World.Step(dt) {
		s.dispatch(contact, contact.A)
		s.dispatch(contact, contact.B)
	}
}

func (s *Scene) dispatch(contact physics.Contact, body *physics.Body) {
	o, ok := s.byBody[body]
	if !ok {
		return
	}
	collision := contact.For(body)
	for _, c := range o.components {
		if l, ok := c.(CollisionListener); ok && !s.isDisabled(c) {
			l.OnCollisionEnter(collision)
		}
	}
}

func (s *Scene) isDisabled(c Component) bool {
	for _, e := range s.entries {
		if e.c == c {
			return e.disabled || !e.started
		}
	}
	return true
}

func objectName(c Component) string {
	if o := c.Object(); o != nil {
		return o.Name
	}
	return ""
}
