// Package audio plays synthesized clips through sources with per-source
// pitch, backed by beep. Sources fall back to silent bookkeeping when no
// output device is available.
package audio

import (
	"time"

	"github.com/gopxl/beep"
)

// Clip is a named sound. New builds a fresh streamer for each playback.
type Clip struct {
	Name string

	// Length bounds playback; zero plays until stopped
	Length time.Duration

	New func(sr beep.SampleRate) beep.Streamer
}

// Stream returns a new streamer for the clip at the given rate
func (c *Clip) Stream(sr beep.SampleRate) beep.Streamer {
	s := c.New(sr)
	if c.Length > 0 {
		return beep.Take(sr.N(c.Length), s)
	}
	return s
}

// Source is a playback voice that holds one clip at a time
type Source interface {
	SetClip(c *Clip)
	Clip() *Clip

	// SetPitch sets the playback rate multiplier; 1 is the natural pitch
	SetPitch(p float64)
	Pitch() float64

	// Play restarts the current clip from the beginning
	Play()
	Stop()
	IsPlaying() bool
}

// Voices hands out sources; *Mixer is the device-backed implementation
type Voices interface {
	NewSource() Source
}

// Output is the device a Mixer plays into. Package audio/speaker provides
// the sound card; tests and headless runs leave it unset.
type Output interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
}

const minPitch = 0.01

func clampPitch(p float64) float64 {
	if p < minPitch {
		return minPitch
	}
	return p
}
