package audio

// Silent is a Source that tracks state without producing sound.
// It is used when no output device is available and in tests.
type Silent struct {
	clip    *Clip
	pitch   float64
	playing bool

	// PlayCount and StopCount count calls to Play and Stop
	PlayCount int
	StopCount int
}

// NewSilent creates a silent source at pitch 1
func NewSilent() *Silent {
	return &Silent{pitch: 1}
}

func (s *Silent) SetClip(c *Clip) {
	s.clip = c
}

func (s *Silent) Clip() *Clip {
	return s.clip
}

func (s *Silent) SetPitch(p float64) {
	s.pitch = clampPitch(p)
}

func (s *Silent) Pitch() float64 {
	return s.pitch
}

func (s *Silent) Play() {
	s.PlayCount++
	s.playing = s.clip != nil
}

func (s *Silent) Stop() {
	s.StopCount++
	s.playing = false
}

func (s *Silent) IsPlaying() bool {
	return s.playing
}
