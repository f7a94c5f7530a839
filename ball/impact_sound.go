// Package ball holds the ball's gameplay components.
package ball

import (
	"errors"
	"math/rand/v2"

	"carball/audio"
	"carball/engine"
	"carball/physics"
	"carball/telemetry"
)

// ErrNoSource is returned by Validate when no audio source is set
var ErrNoSource = errors.New("ball: no audio source")

const (
	MinPitch = 0.1
	MaxPitch = 0.4
)

// ImpactSound restarts the bounce clip at a random pitch on every contact.
// Rapid contacts each restart the sound.
type ImpactSound struct {
	engine.BaseComponent

	Source audio.Source
	Clip   *audio.Clip
	Events telemetry.Sink

	rng *rand.Rand
}

// NewImpactSound creates the component; rng may be nil for a random seed
func NewImpactSound(src audio.Source, rng *rand.Rand) *ImpactSound {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &ImpactSound{
		Source: src,
		Clip:   audio.BounceClip(),
		Events: telemetry.Discard{},
		rng:    rng,
	}
}

func (s *ImpactSound) Validate() error {
	if s.Source == nil {
		return ErrNoSource
	}
	return nil
}

func (s *ImpactSound) Start() error {
	if s.Source.Clip() == nil {
		s.Source.SetClip(s.Clip)
	}
	if s.Events == nil {
		s.Events = telemetry.Discard{}
	}
	return nil
}

func (s *ImpactSound) OnCollisionEnter(c physics.Collision) {
	pitch := MinPitch + s.rng.Float64()*(MaxPitch-MinPitch)
	s.Source.SetPitch(pitch)
	s.Source.Stop()
	s.Source.Play()

	e := telemetry.Event{
		Kind: telemetry.KindBounce,
		Attrs: map[string]any{
			"other": c.Other.Name,
			"speed": c.RelativeSpeed,
			"pitch": pitch,
		},
	}
	if o := s.Object(); o != nil {
		e.Entity = o.Name
		if sc := o.Scene(); sc != nil {
			e.Time = sc.Time()
		}
	}
	s.Events.Record(e)
}
