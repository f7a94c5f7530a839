package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
)

// IdleClip is a low engine hum that loops until stopped
func IdleClip() *Clip {
	return &Clip{
		Name: "engine-idle",
		New: func(sr beep.SampleRate) beep.Streamer {
			return &engineGenerator{sr: sr, freq: 38, level: 0.12}
		},
	}
}

// DriveClip is a brighter engine tone; pitch scales the apparent rpm
func DriveClip() *Clip {
	return &Clip{
		Name: "engine-drive",
		New: func(sr beep.SampleRate) beep.Streamer {
			return &engineGenerator{sr: sr, freq: 95, level: 0.16}
		},
	}
}

// BounceClip is a short thud
func BounceClip() *Clip {
	return &Clip{
		Name:   "ball-bounce",
		Length: 180 * time.Millisecond,
		New: func(sr beep.SampleRate) beep.Streamer {
			return &thudGenerator{sr: sr, rng: rand.New(rand.NewPCG(1, 2))}
		},
	}
}

// engineGenerator produces a fundamental with odd harmonics and a slow
// firing-rate wobble
type engineGenerator struct {
	sr    beep.SampleRate
	freq  float64
	level float64
	pos   int
}

func (g *engineGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		wobble := 1 + 0.04*math.Sin(2*math.Pi*6*t)
		phase := 2 * math.Pi * g.freq * wobble * t
		sample := math.Sin(phase) + 0.45*math.Sin(3*phase) + 0.2*math.Sin(5*phase)
		sample *= g.level / 1.65

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *engineGenerator) Err() error {
	return nil
}

// thudGenerator mixes a falling low sine with decaying noise
type thudGenerator struct {
	sr  beep.SampleRate
	rng *rand.Rand
	pos int
}

func (g *thudGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		envelope := math.Exp(-t * 22)
		freq := 90 + 140*math.Exp(-t*40)
		body := math.Sin(2 * math.Pi * freq * t)
		noise := g.rng.Float64()*2 - 1

		sample := envelope * (0.5*body + 0.12*noise)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *thudGenerator) Err() error {
	return nil
}
