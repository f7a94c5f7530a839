package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/rs/zerolog"
)

const resampleQuality = 4

// ErrNoOutput is returned by Initialize when the mixer has no device
var ErrNoOutput = errors.New("audio: no output device")

// Mixer owns the output device and mixes every source into it
type Mixer struct {
	mu          sync.Mutex
	out         Output
	mixer       *beep.Mixer
	rate        beep.SampleRate
	volume      float64
	log         zerolog.Logger
	initialized bool
}

// NewMixer creates a mixer playing into out; volume is linear in [0, 1]
func NewMixer(out Output, sampleRate int, volume float64, log zerolog.Logger) *Mixer {
	return &Mixer{
		out:    out,
		mixer:  &beep.Mixer{},
		rate:   beep.SampleRate(sampleRate),
		volume: volume,
		log:    log.With().Str("component", "audio").Logger(),
	}
}

// Initialize opens the output device
func (m *Mixer) Initialize(buffer time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if m.out == nil {
		return ErrNoOutput
	}

	if err := m.out.Init(m.rate, m.rate.N(buffer)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	m.out.Play(beep.StreamerFunc(m.stream))
	m.initialized = true
	m.log.Info().Int("rate", int(m.rate)).Dur("buffer", buffer).Msg("audio initialized")
	return nil
}

// Initialized reports whether the output device is open
func (m *Mixer) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Cleanup silences every source and releases the device
func (m *Mixer) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	m.mixer.Clear()
	m.out.Clear()
	m.initialized = false
}

// NewSource returns a beep-backed source, or a Silent one when the device
// is not open
func (m *Mixer) NewSource() Source {
	if !m.Initialized() {
		return NewSilent()
	}
	return newVoice(m)
}

// stream is the speaker callback; sources mutate the mix under m.mu
func (m *Mixer) stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, _ := m.mixer.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

// voice is a Source playing through a Mixer
type voice struct {
	m         *Mixer
	clip      *Clip
	pitch     float64
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	done      *atomic.Bool
}

func newVoice(m *Mixer) *voice {
	return &voice{m: m, pitch: 1}
}

func (v *voice) SetClip(c *Clip) {
	v.clip = c
}

func (v *voice) Clip() *Clip {
	return v.clip
}

func (v *voice) SetPitch(p float64) {
	v.pitch = clampPitch(p)

	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if v.resampler != nil {
		v.resampler.SetRatio(v.pitch)
	}
}

func (v *voice) Pitch() float64 {
	return v.pitch
}

func (v *voice) Play() {
	if v.clip == nil {
		return
	}

	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	if v.ctrl != nil {
		v.ctrl.Paused = true
		v.ctrl.Streamer = nil
	}

	done := &atomic.Bool{}
	v.resampler = beep.ResampleRatio(resampleQuality, v.pitch, v.clip.Stream(v.m.rate))
	v.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(volume(v.resampler, v.m.volume), beep.Callback(func() { done.Store(true) })),
	}
	v.done = done
	v.m.mixer.Add(v.ctrl)
}

func (v *voice) Stop() {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	if v.ctrl == nil {
		return
	}
	v.ctrl.Paused = true
	v.ctrl.Streamer = nil
	v.ctrl = nil
	v.resampler = nil
}

func (v *voice) IsPlaying() bool {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return v.ctrl != nil && !v.done.Load()
}

func volume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
