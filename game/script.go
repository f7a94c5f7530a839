package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"carball/input"
	"carball/telemetry"
	"carball/vehicle"
)

// Cue changes scripted input once scene time reaches At
type Cue struct {
	At    float64
	Apply func(in *input.Scripted)
}

// Script is a list of cues sorted by time
type Script []Cue

func setAxis(at float64, a input.Axis, v float64) Cue {
	return Cue{At: at, Apply: func(in *input.Scripted) { in.SetAxis(a, v) }}
}

// press holds b for a few frames
func press(at float64, b input.Button) []Cue {
	return []Cue{
		{At: at, Apply: func(in *input.Scripted) { in.Hold(b) }},
		{At: at + 0.05, Apply: func(in *input.Scripted) { in.Release(b) }},
	}
}

// DemoScript drives, steers, jumps, flips from the ground, reverses and
// toggles the camera twice
func DemoScript() Script {
	s := Script{
		setAxis(0.5, input.AxisThrottle, 1),
		setAxis(2.0, input.AxisHorizontal, 0.5),
		setAxis(3.0, input.AxisHorizontal, 0),
	}
	s = append(s, press(3.5, input.ButtonJump)...)
	s = append(s, setAxis(4.5, input.AxisThrottle, 0))
	s = append(s, setAxis(5.0, input.AxisVertical, 1))
	s = append(s, press(5.0, input.ButtonJump)...)
	s = append(s, setAxis(5.1, input.AxisVertical, 0))
	s = append(s, press(6.0, input.ButtonCameraSwitch)...)
	s = append(s,
		setAxis(7.0, input.AxisReverseThrottle, 1),
		setAxis(8.0, input.AxisReverseThrottle, 0),
	)
	s = append(s, press(9.0, input.ButtonCameraSwitch)...)
	return s
}

// Summary describes a finished scripted run
type Summary struct {
	Seconds   float64
	Frames    uint64
	Steps     uint64
	MaxSpeed  float64
	Events    map[telemetry.Kind]int
	Car       mgl64.Vec3
	Ball      mgl64.Vec3
	State     vehicle.State
	BallFocus bool
}

// RunScript steps g for seconds in frames of dt, applying cues as their
// time comes. mem, when set, is counted into the summary.
func RunScript(g *Game, in *input.Scripted, s Script, seconds, dt float64, mem *telemetry.Memory) Summary {
	frames := int(seconds/dt + 0.5)
	next := 0
	sum := Summary{Events: make(map[telemetry.Kind]int)}

	for i := 0; i < frames; i++ {
		now := float64(i) * dt
		for next < len(s) && s[next].At <= now+1e-9 {
			s[next].Apply(in)
			next++
		}
		g.Step(dt)
		sum.MaxSpeed = max(sum.MaxSpeed, g.Car().Body.Speed())
	}

	sc := g.Scene()
	sum.Seconds = sc.Time()
	sum.Frames = sc.Frames()
	sum.Steps = sc.Steps()
	sum.Car = g.Car().Position()
	sum.Ball = g.Ball().Position()
	sum.State = g.Controller().State()
	sum.BallFocus = g.CameraSwitch().FocusedOnBall()
	if mem != nil {
		for _, e := range mem.Events() {
			sum.Events[e.Kind]++
		}
	}
	return sum
}
