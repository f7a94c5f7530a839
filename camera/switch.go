package camera

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"carball/engine"
	"carball/input"
	"carball/telemetry"
)

// ErrNoInput is returned by Validate when the switch has no input provider
var ErrNoInput = errors.New("camera switch: no input provider")

const (
	defaultDistance  = 2.0
	defaultMinHeight = 0.75
)

// DefaultPlayerOffset keeps the rig behind and above the car
var DefaultPlayerOffset = mgl64.Vec3{0, 0.75, 2}

// TargetSwitch toggles the rig between player focus and ball focus.
// In ball focus the rig trails the player on the far side from the ball.
type TargetSwitch struct {
	engine.BaseComponent

	Player Target
	Ball   Target
	Rig    *Rig
	Input  input.Provider
	Events telemetry.Sink

	Button       input.Button
	Distance     float64
	MinHeight    float64
	PlayerOffset mgl64.Vec3

	log           zerolog.Logger
	focusedOnBall bool
	target        Target
	lastDir       mgl64.Vec3
	hasDir        bool
}

// NewTargetSwitch creates a switch with the default button, distance and
// minimum height
func NewTargetSwitch(player, ball Target, rig *Rig, in input.Provider, log zerolog.Logger) *TargetSwitch {
	return &TargetSwitch{
		Player:       player,
		Ball:         ball,
		Rig:          rig,
		Input:        in,
		Events:       telemetry.Discard{},
		Button:       input.ButtonCameraSwitch,
		Distance:     defaultDistance,
		MinHeight:    defaultMinHeight,
		PlayerOffset: DefaultPlayerOffset,
		log:          log.With().Str("component", "camera-switch").Logger(),
	}
}

func (s *TargetSwitch) Validate() error {
	if s.Input == nil {
		return ErrNoInput
	}
	return nil
}

// FocusedOnBall reports the current focus
func (s *TargetSwitch) FocusedOnBall() bool {
	return s.focusedOnBall
}

func (s *TargetSwitch) Update(dt float64) {
	if s.Input.ButtonDown(s.Button) {
		s.Toggle()
	}

	if s.Rig != nil && s.Player != nil && s.Ball != nil && s.focusedOnBall {
		s.Rig.FollowOffset = s.ballOffset()
	}
}

// Toggle flips between player and ball focus
func (s *TargetSwitch) Toggle() {
	if s.focusedOnBall {
		s.target = s.Player
		s.focusedOnBall = false
		if s.Rig != nil {
			s.Rig.Binding = LockToTargetWithWorldUp
			s.Rig.FollowOffset = s.PlayerOffset
		}
	} else {
		s.target = s.Ball
		s.focusedOnBall = true
		if s.Rig != nil {
			s.Rig.Binding = WorldSpace
		}
	}
	s.setLookAt()

	if s.Events != nil {
		e := telemetry.Event{Kind: telemetry.KindFocus, Attrs: map[string]any{"ball": s.focusedOnBall}}
		if o := s.Object(); o != nil {
			e.Entity = o.Name
			if sc := o.Scene(); sc != nil {
				e.Time = sc.Time()
			}
		}
		s.Events.Record(e)
	}
}

func (s *TargetSwitch) setLookAt() {
	if s.Rig == nil {
		s.log.Warn().Msg("virtual camera rig not assigned")
		return
	}
	s.Rig.LookAt = s.target
}

// ballOffset places the rig Distance behind the player on the ball line,
// never lower than MinHeight above it
func (s *TargetSwitch) ballOffset() mgl64.Vec3 {
	d := s.Ball.Position().Sub(s.Player.Position())
	var dir mgl64.Vec3
	switch {
	case d.Len() > 1e-6:
		dir = d.Normalize()
	case s.hasDir:
		dir = s.lastDir
	default:
		dir = forward(s.Player.Rotation())
	}
	s.lastDir, s.hasDir = dir, true

	offset := dir.Mul(-s.Distance)
	offset[1] = max(s.MinHeight, offset[1])
	return offset
}
