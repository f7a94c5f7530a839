// Package game wires the scene, the arena, the car, the ball and the camera
// together. It has no window or audio device of its own; package window
// runs it on screen and cmd/headless runs it from a script.
package game

import (
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"carball/audio"
	"carball/ball"
	"carball/camera"
	"carball/config"
	"carball/engine"
	"carball/input"
	"carball/physics"
	"carball/render"
	"carball/telemetry"
	"carball/vehicle"
)

var ballColor = color.RGBA{235, 235, 235, 255}

// Options are the collaborators NewGame does not build itself
type Options struct {
	Config config.Config
	Input  input.Provider
	// Voices may be nil; every source is then silent
	Voices audio.Voices
	Events telemetry.Sink
	// Rand seeds the bounce pitch; nil picks a random seed
	Rand     *rand.Rand
	Profiler *Profiler
	Logger   zerolog.Logger
}

// Game represents the main game state
type Game struct {
	cfg    config.Config
	log    zerolog.Logger
	input  input.Provider
	scene  *engine.Scene
	arena  *Arena
	preset vehicle.Preset

	car          *engine.Object
	ball         *engine.Object
	cam          *engine.Object
	controller   *vehicle.Controller
	impact       *ball.ImpactSound
	rig          *camera.Rig
	targetSwitch *camera.TargetSwitch

	carSpawn  mgl64.Vec3
	ballSpawn mgl64.Vec3

	monitor *FrameMonitor
}

// NewGame creates a new game instance
func NewGame(opts Options) (*Game, error) {
	cfg := opts.Config
	if opts.Input == nil {
		return nil, vehicle.ErrMissingInput
	}
	events := opts.Events
	if events == nil {
		events = telemetry.Discard{}
	}

	preset, err := vehicle.GetPreset(cfg.Car.Preset)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyTuning(&preset.Tuning); err != nil {
		return nil, fmt.Errorf("car tuning: %w", err)
	}

	world := physics.NewWorld(mgl64.Vec3{0, -cfg.Physics.Gravity, 0})
	scene := engine.NewScene(world, engine.Options{
		FixedDelta:    cfg.Physics.FixedDelta,
		MaxFixedSteps: cfg.Physics.MaxFixedSteps,
	}, opts.Logger)

	arena, err := BuildArena(scene, cfg.Arena)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:     cfg,
		log:     opts.Logger.With().Str("component", "game").Logger(),
		input:   opts.Input,
		scene:   scene,
		arena:   arena,
		preset:  preset,
		monitor: NewFrameMonitor(opts.Profiler, cfg.Debug.MinFPS, opts.Logger),
	}

	if err := g.createCar(opts.Voices, events, opts.Logger); err != nil {
		return nil, err
	}
	if err := g.createBall(opts.Voices, events, opts.Rand); err != nil {
		return nil, err
	}
	if err := g.createCamera(events, opts.Logger); err != nil {
		return nil, err
	}

	g.log.Info().
		Str("preset", preset.Name).
		Float64("fixedDelta", scene.FixedDelta()).
		Int("objects", len(scene.Objects())).
		Msg("scene ready")
	return g, nil
}

func newSource(v audio.Voices) audio.Source {
	if v == nil {
		return audio.NewSilent()
	}
	return v.NewSource()
}

// createCar spawns the player car upright, wheels just above the floor
func (g *Game) createCar(voices audio.Voices, events telemetry.Sink, log zerolog.Logger) error {
	spawn := g.cfg.Car.Spawn.Vec3()
	spawn[1] = max(spawn[1], g.preset.HalfExtents.Y()+0.05)
	g.carSpawn = spawn

	body := g.preset.NewBody("car")
	body.Reset(spawn, mgl64.QuatIdent())

	g.controller = vehicle.NewController(g.preset.Tuning, g.input, newSource(voices), log)
	g.controller.Events = events

	g.car = engine.NewObject("car", body)
	g.car.AddComponent(g.controller)
	return g.scene.Add(g.car)
}

func (g *Game) createBall(voices audio.Voices, events telemetry.Sink, rng *rand.Rand) error {
	bc := g.cfg.Ball
	g.ballSpawn = bc.Spawn.Vec3()

	body := physics.NewSphereBody("ball", bc.Radius, bc.Mass)
	body.Collider.Restitution = bc.Restitution
	body.Reset(g.ballSpawn, mgl64.QuatIdent())

	g.impact = ball.NewImpactSound(newSource(voices), rng)
	g.impact.Events = events

	g.ball = engine.NewObject("ball", body)
	g.ball.AddComponent(g.impact)
	return g.scene.Add(g.ball)
}

// createCamera adds a bodiless object carrying the rig and the focus switch
func (g *Game) createCamera(events telemetry.Sink, log zerolog.Logger) error {
	cc := g.cfg.Camera

	g.rig = camera.NewRig(g.car, cc.PlayerOffset.Vec3())
	g.rig.LookAt = g.car
	g.rig.FOV = cc.FOV
	g.rig.Damping = cc.Damping

	g.targetSwitch = camera.NewTargetSwitch(g.car, g.ball, g.rig, g.input, log)
	g.targetSwitch.Distance = cc.Distance
	g.targetSwitch.MinHeight = cc.MinHeight
	g.targetSwitch.PlayerOffset = cc.PlayerOffset.Vec3()
	g.targetSwitch.Events = events

	g.cam = engine.NewObject("camera", nil)
	g.cam.AddComponent(g.targetSwitch)
	g.cam.AddComponent(g.rig)
	return g.scene.Add(g.cam)
}

// Reset puts the car and the ball back on their spawn points at rest
func (g *Game) Reset() {
	g.car.SetPose(g.carSpawn, mgl64.QuatIdent())
	g.ball.SetPose(g.ballSpawn, mgl64.QuatIdent())
	g.controller.Reset()
	g.log.Info().Float64("time", g.scene.Time()).Msg("round reset")
}

// Step advances input and the scene by dt seconds
func (g *Game) Step(dt float64) {
	g.input.Update(dt)
	if g.input.ButtonDown(input.ButtonReset) {
		g.Reset()
	}
	g.scene.Tick(dt)
}

// Frame collects what the renderer needs for the current state
func (g *Game) Frame(fps, tps float64) render.Frame {
	carBody := g.car.Body
	ballBody := g.ball.Body
	return render.Frame{
		Rig: g.rig,
		Arena: render.Arena{
			Width:  g.arena.Width,
			Length: g.arena.Length,
			Height: g.arena.Height,
		},
		Boxes: []render.Box{{
			Center:      carBody.Position,
			Rotation:    carBody.Rotation,
			HalfExtents: carBody.Collider.HalfExtents,
			Color:       g.preset.Color,
		}},
		Spheres: []render.Sphere{{
			Center: ballBody.Position,
			Radius: ballBody.Collider.Radius,
			Color:  ballColor,
		}},
		HUD: render.HUD{
			Preset:    g.preset.Name,
			Vehicle:   g.controller.State(),
			BallFocus: g.targetSwitch.FocusedOnBall(),
			Time:      g.scene.Time(),
			FPS:       fps,
			TPS:       tps,
		},
	}
}

// Close drops pending timers
func (g *Game) Close() {
	g.scene.Close()
}

func (g *Game) Scene() *engine.Scene { return g.scene }
func (g *Game) Arena() *Arena { return g.arena }
func (g *Game) Car() *engine.Object { return g.car }
func (g *Game) Ball() *engine.Object { return g.ball }
func (g *Game) Controller() *vehicle.Controller { return g.controller }
func (g *Game) CameraSwitch() *camera.TargetSwitch { return g.targetSwitch }
func (g *Game) Rig() *camera.Rig { return g.rig }
func (g *Game) FrameMonitor() *FrameMonitor { return g.monitor }
