// Package speaker connects an audio.Mixer to the sound card through beep's
// speaker package. It is the only package that needs a native audio backend.
package speaker

import (
	"github.com/gopxl/beep"
	beepspeaker "github.com/gopxl/beep/speaker"

	"carball/audio"
)

// Device is the process-wide sound card output
type Device struct{}

var _ audio.Output = Device{}

func (Device) Init(sr beep.SampleRate, bufferSize int) error {
	return beepspeaker.Init(sr, bufferSize)
}

func (Device) Play(s beep.Streamer) {
	beepspeaker.Play(s)
}

func (Device) Clear() {
	beepspeaker.Clear()
}
