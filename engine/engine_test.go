package engine

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carball/physics"
)

type recorder struct {
	BaseComponent
	calls      []string
	validErr   error
	collisions []physics.Collision
}

func (r *recorder) Validate() error { return r.validErr }
func (r *recorder) Start() error { r.calls = append(r.calls, "start"); return nil }
func (r *recorder) Update(dt float64) { r.calls = append(r.calls, "update") }
func (r *recorder) FixedUpdate(dt float64) { r.calls = append(r.calls, "fixed") }
func (r *recorder) LateUpdate(dt float64) { r.calls = append(r.calls, "late") }
func (r *recorder) OnCollisionEnter(c physics.Collision) {
	r.collisions = append(r.collisions, c)
}

func newTestScene() *Scene {
	return NewScene(physics.NewWorld(physics.DefaultGravity), DefaultOptions(), zerolog.Nop())
}

func TestSchedulerRunsInDueOrder(t *testing.T) {
	s := NewScheduler()
	var order []int
	s.After(0.5, func() { order = append(order, 2) })
	s.After(0.1, func() { order = append(order, 1) })
	s.After(0.5, func() { order = append(order, 3) })

	assert.Equal(t, 0, s.Advance(0.05))
	assert.Equal(t, 1, s.Advance(0.05))
	assert.Equal(t, 2, s.Advance(1))
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, s.Pending())
}

func TestSchedulerToleratesFloatDrift(t *testing.T) {
	s := NewScheduler()
	fired := false
	s.After(1.0, func() { fired = true })

	// 0.1 summed ten times is slightly below 1.0 in binary floating point
	for i := 0; i < 10; i++ {
		s.Advance(0.1)
	}
	assert.True(t, fired)
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()
	fired := false
	id := s.After(0.2, func() { fired = true })

	assert.True(t, s.Cancel(id))
	assert.False(t, s.Cancel(id))
	s.Advance(1)
	assert.False(t, fired)
}

func TestSchedulerOverlappingTimersFireIndependently(t *testing.T) {
	s := NewScheduler()
	var fired []float64
	s.After(1, func() { fired = append(fired, s.Now()) })
	s.Advance(0.3)
	s.After(1, func() { fired = append(fired, s.Now()) })

	for i := 0; i < 20; i++ {
		s.Advance(0.1)
	}
	require.Len(t, fired, 2)
	assert.InDelta(t, 1.0, fired[0], 1e-6)
	assert.InDelta(t, 1.3, fired[1], 1e-6)
}

func TestSceneLifecycleOrder(t *testing.T) {
	scene := newTestScene()
	r := &recorder{}
	o := NewObject("thing", nil)
	o.AddComponent(r)
	require.NoError(t, scene.Add(o))

	scene.Tick(0.02)
	assert.Equal(t, []string{"start", "fixed", "update", "late"}, r.calls)
	assert.Same(t, o, r.Object())
}

func TestSceneFixedStepAccumulates(t *testing.T) {
	scene := newTestScene()
	r := &recorder{}
	o := NewObject("thing", nil)
	o.AddComponent(r)
	require.NoError(t, scene.Add(o))

	// 120 Hz frames over one second give 50 fixed steps
	for i := 0; i < 120; i++ {
		scene.Tick(1.0 / 120)
	}
	assert.Equal(t, uint64(50), scene.Steps())
	assert.Equal(t, uint64(120), scene.Frames())
	assert.InDelta(t, 1.0, scene.Time(), 1e-9)
}

func TestSceneDropsExcessCatchUp(t *testing.T) {
	scene := newTestScene()
	scene.Tick(10)
	assert.Equal(t, uint64(DefaultOptions().MaxFixedSteps), scene.Steps())

	scene.Tick(0.02)
	assert.Equal(t, uint64(DefaultOptions().MaxFixedSteps+1), scene.Steps())
}

func TestSceneDisablesInvalidComponent(t *testing.T) {
	scene := newTestScene()
	r := &recorder{validErr: errors.New("missing body")}
	o := NewObject("broken", nil)
	o.AddComponent(r)
	require.NoError(t, scene.Add(o))

	scene.Tick(0.02)
	scene.Tick(0.02)
	assert.Empty(t, r.calls)
}

func TestSceneAddsBodyAndDispatchesContacts(t *testing.T) {
	scene := newTestScene()
	ground := NewObject("ground", physics.NewPlane("ground", mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}))
	require.NoError(t, scene.Add(ground))

	body := physics.NewSphereBody("ball", 0.5, 1)
	body.Position = mgl64.Vec3{0, 0.55, 0}
	ball := NewObject("ball", body)
	r := &recorder{}
	ball.AddComponent(r)
	require.NoError(t, scene.Add(ball))

	for i := 0; i < 20; i++ {
		scene.Tick(0.02)
	}
	require.NotEmpty(t, r.collisions)
	assert.Same(t, body, r.collisions[0].Self)
	assert.Equal(t, "ground", r.collisions[0].Other.Name)
	assert.Same(t, ball, scene.Find("ball"))
	assert.Len(t, scene.Objects(), 2)
}

func TestSceneRejectsDoubleAdd(t *testing.T) {
	scene := newTestScene()
	o := NewObject("thing", nil)
	require.NoError(t, scene.Add(o))
	assert.Error(t, scene.Add(o))
}

func TestSceneCloseDropsTimers(t *testing.T) {
	scene := newTestScene()
	fired := false
	scene.After(0.1, func() { fired = true })
	scene.Close()

	scene.Tick(1)
	assert.False(t, fired)
}

func TestObjectPoseWithoutBody(t *testing.T) {
	o := NewObject("camera", nil)
	rot := mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0})
	o.SetPose(mgl64.Vec3{1, 2, 3}, rot)

	assert.Equal(t, mgl64.Vec3{1, 2, 3}, o.Position())
	assert.InDelta(t, 1.0, o.Rotation().Dot(rot), 1e-9)
}
