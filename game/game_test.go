package game

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carball/config"
	"carball/input"
	"carball/telemetry"
	"carball/vehicle"
)

const frame = 1.0 / 60

type harness struct {
	game   *Game
	input  *input.Scripted
	events *telemetry.Memory
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	in := input.NewScripted()
	events := &telemetry.Memory{}
	g, err := NewGame(Options{
		Config: cfg,
		Input:  in,
		Events: events,
		Rand:   rand.New(rand.NewPCG(1, 2)),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return &harness{game: g, input: in, events: events}
}

func (h *harness) run(seconds float64) {
	for i := 0; i < int(seconds/frame+0.5); i++ {
		h.game.Step(frame)
	}
}

func TestNewGame_BuildsScene(t *testing.T) {
	h := newHarness(t, nil)
	g := h.game

	assert.Len(t, g.Arena().Surfaces, 6)
	assert.Len(t, g.Scene().Objects(), 9)
	for _, name := range []string{"ground", "ceiling", "wall-east", "wall-west", "wall-north", "wall-south", "car", "ball", "camera"} {
		assert.NotNil(t, g.Scene().Find(name), name)
	}
	assert.Nil(t, g.Scene().Find("camera").Body)
	assert.True(t, g.Arena().Contains(g.Car().Position()))
	assert.True(t, g.Arena().Contains(g.Ball().Position()))
}

func TestNewGame_Errors(t *testing.T) {
	_, err := NewGame(Options{Config: config.DefaultConfig(), Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, vehicle.ErrMissingInput)

	cfg := config.DefaultConfig()
	cfg.Car.Preset = "hovercraft"
	_, err = NewGame(Options{Config: cfg, Input: input.NewScripted(), Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, vehicle.ErrUnknownPreset)
}

func TestGame_CarSettlesAndDrives(t *testing.T) {
	h := newHarness(t, nil)
	h.run(0.5)

	state := h.game.Controller().State()
	require.True(t, state.Grounded)
	assert.Equal(t, 1, state.JumpCount)
	assert.Equal(t, "engine-idle", state.EngineClip)

	startZ := h.game.Car().Position().Z()
	h.input.SetAxis(input.AxisThrottle, 1)
	h.run(1)

	assert.Less(t, h.game.Car().Position().Z(), startZ-1)
	assert.Greater(t, h.game.Controller().State().Speed, 1.0)
	assert.Equal(t, "engine-drive", h.game.Controller().State().EngineClip)
}

func TestGame_BallBouncesOnGround(t *testing.T) {
	h := newHarness(t, nil)
	h.run(2)

	bounces := 0
	for _, e := range h.events.Events() {
		if e.Kind == telemetry.KindBounce && e.Attrs["other"] == "ground" {
			bounces++
			assert.Equal(t, "ball", e.Entity)
			assert.Greater(t, e.Time, 0.0)
		}
	}
	assert.GreaterOrEqual(t, bounces, 1)
}

func TestGame_CameraSwitch(t *testing.T) {
	h := newHarness(t, nil)
	h.run(0.1)
	require.False(t, h.game.CameraSwitch().FocusedOnBall())

	h.input.Hold(input.ButtonCameraSwitch)
	h.game.Step(frame)
	h.input.Release(input.ButtonCameraSwitch)
	h.run(0.2)

	assert.True(t, h.game.CameraSwitch().FocusedOnBall())
	assert.Equal(t, 1, h.events.Count(telemetry.KindFocus))
	assert.Equal(t, h.game.Ball(), h.game.Rig().LookAt)
	assert.GreaterOrEqual(t, h.game.Rig().FollowOffset.Y(), 0.75)

	frameData := h.game.Frame(60, 120)
	assert.True(t, frameData.HUD.BallFocus)
	assert.Equal(t, "standard", frameData.HUD.Preset)
	require.Len(t, frameData.Boxes, 1)
	require.Len(t, frameData.Spheres, 1)
	assert.Equal(t, 1.0, frameData.Spheres[0].Radius)
}

func TestGame_ResetButton(t *testing.T) {
	h := newHarness(t, nil)
	h.input.SetAxis(input.AxisThrottle, 1)
	h.run(1)
	h.input.SetAxis(input.AxisThrottle, 0)

	h.input.Hold(input.ButtonReset)
	h.game.Step(frame)
	h.input.Release(input.ButtonReset)

	// one frame of physics has run since the reset
	assert.InDelta(t, 10.0, h.game.Car().Position().Z(), 0.05)
	assert.InDelta(t, 0.0, h.game.Ball().Position().X(), 1e-6)
	assert.InDelta(t, 4.0, h.game.Ball().Position().Y(), 0.05)
}

func TestGame_HeavyPresetSpawnsAboveFloor(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Car.Preset = "heavy"
	})
	assert.GreaterOrEqual(t, h.game.Car().Position().Y(), 0.35)

	h.run(0.5)
	assert.True(t, h.game.Controller().State().Grounded)
}

func TestGame_JumpRecordsEvent(t *testing.T) {
	h := newHarness(t, nil)
	h.run(0.5)

	h.input.Hold(input.ButtonJump)
	h.game.Step(frame)
	h.input.Release(input.ButtonJump)
	h.run(0.1)

	assert.Equal(t, 1, h.events.Count(telemetry.KindJump))
	assert.Greater(t, h.game.Car().Position().Y(), 0.4)
}

func TestFrameMonitor(t *testing.T) {
	m := NewFrameMonitor(nil, 45, zerolog.Nop())

	for i := 0; i < 32; i++ {
		assert.False(t, m.Observe(1.0/64))
	}
	assert.Equal(t, 64.0, m.FPS())

	m.Observe(0.25)
	m.Observe(0.25)
	assert.Equal(t, 4.0, m.FPS())
}

func TestProfilerCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	p := NewProfiler(dir, 20*time.Millisecond, zerolog.Nop())

	m := NewFrameMonitor(p, 45, zerolog.Nop())
	m.Warmup = 0
	started := false
	for i := 0; i < 10 && !started; i++ {
		started = m.Observe(0.1)
	}
	require.True(t, started)
	assert.ErrorIs(t, p.Capture("again"), ErrProfileBusy)

	p.Wait()
	assert.False(t, p.Busy())
	assert.ErrorIs(t, p.Capture("again"), ErrProfileCooldown)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var cpu, tr int
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".prof":
			cpu++
		case ".trace":
			tr++
		}
	}
	assert.Equal(t, 1, cpu)
	assert.Equal(t, 1, tr)
}

func TestArenaContains(t *testing.T) {
	a := &Arena{Width: 10, Length: 20, Height: 5}
	assert.True(t, a.Contains(mgl64.Vec3{4.9, 0, -9.9}))
	assert.False(t, a.Contains(mgl64.Vec3{5.1, 1, 0}))
	assert.False(t, a.Contains(mgl64.Vec3{0, -0.1, 0}))
	assert.False(t, a.Contains(mgl64.Vec3{0, 5.1, 0}))
	assert.False(t, a.Contains(mgl64.Vec3{0, 1, 10.5}))
}

func TestRunScript_Demo(t *testing.T) {
	h := newHarness(t, nil)

	sum := RunScript(h.game, h.input, DemoScript(), 10, frame, h.events)

	assert.Equal(t, uint64(600), sum.Frames)
	assert.InDelta(t, 10.0, sum.Seconds, 1e-6)
	assert.InDelta(t, 500, float64(sum.Steps), 2)
	assert.Greater(t, sum.MaxSpeed, 1.0)
	assert.GreaterOrEqual(t, sum.Events[telemetry.KindJump], 1)
	assert.Equal(t, 1, sum.Events[telemetry.KindFlip])
	assert.False(t, sum.State.HasFlipped, "landed after the flip")
	assert.Equal(t, 1, sum.State.JumpCount)
	assert.Equal(t, 2, sum.Events[telemetry.KindFocus])
	assert.GreaterOrEqual(t, sum.Events[telemetry.KindBounce], 1)
	assert.False(t, sum.BallFocus)
	assert.True(t, h.game.Arena().Contains(sum.Ball))
}

func TestOpenTelemetry_SQLite(t *testing.T) {
	cfg := config.DefaultConfig().Telemetry
	cfg.Enabled = true
	cfg.DSN = filepath.Join(t.TempDir(), "events.db")

	tel, err := OpenTelemetry(cfg, true, zerolog.Nop())
	require.NoError(t, err)
	require.NotEmpty(t, tel.Session)

	sink := tel.Sink()
	sink.Record(telemetry.Event{Time: 0.5, Kind: telemetry.KindJump, Entity: "car"})
	sink.Record(telemetry.Event{Time: 0.7, Kind: telemetry.KindBounce, Entity: "ball"})
	sink.Record(telemetry.Event{Time: 0.9, Kind: telemetry.KindBounce, Entity: "ball"})

	require.NoError(t, tel.Close())
	assert.Equal(t, 2, tel.Memory.Count(telemetry.KindBounce))

	store, err := telemetry.Open("sqlite", cfg.DSN)
	require.NoError(t, err)
	defer store.Close()

	counts, err := store.CountByKind(tel.Session)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[telemetry.KindJump])
	assert.Equal(t, int64(2), counts[telemetry.KindBounce])
}

func TestOpenTelemetry_Disabled(t *testing.T) {
	tel, err := OpenTelemetry(config.DefaultConfig().Telemetry, false, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, tel.Store)
	assert.Nil(t, tel.Memory)
	tel.Sink().Record(telemetry.Event{Kind: telemetry.KindFlip})
	assert.NoError(t, tel.Close())
}
