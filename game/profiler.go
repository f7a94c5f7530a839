package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrProfileCooldown = errors.New("profile capture on cooldown")
	ErrProfileBusy     = errors.New("already profiling")
)

// Profiler captures a CPU profile and an execution trace when the frame
// rate drops
type Profiler struct {
	mu              sync.Mutex
	wg              sync.WaitGroup
	busy            bool
	lastCaptureTime time.Time
	captureCooldown time.Duration
	captureDuration time.Duration
	dir             string
	log             zerolog.Logger
}

// NewProfiler creates a profiler writing into dir
func NewProfiler(dir string, duration time.Duration, log zerolog.Logger) *Profiler {
	return &Profiler{
		captureCooldown: 10 * time.Second,
		captureDuration: duration,
		dir:             dir,
		log:             log.With().Str("component", "profiler").Logger(),
	}
}

// Capture starts a background capture named after reason
func (p *Profiler) Capture(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return ErrProfileBusy
	}
	if !p.lastCaptureTime.IsZero() && time.Since(p.lastCaptureTime) < p.captureCooldown {
		return ErrProfileCooldown
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}

	p.busy = true
	p.lastCaptureTime = time.Now()
	base := fmt.Sprintf("frame-drop-%s-%s", p.lastCaptureTime.Format("20060102-150405"), reason)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			p.mu.Lock()
			p.busy = false
			p.mu.Unlock()
		}()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := p.captureCPUProfile(base); err != nil {
				p.log.Warn().Err(err).Msg("cpu profile failed")
			}
		}()
		go func() {
			defer wg.Done()
			if err := p.captureTrace(base); err != nil {
				p.log.Warn().Err(err).Msg("trace failed")
			}
		}()
		wg.Wait()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		p.log.Info().
			Str("profile", filepath.Join(p.dir, base+".cpu.prof")).
			Uint64("heapAllocKB", m.HeapAlloc/1024).
			Uint32("numGC", m.NumGC).
			Msg("profile saved; inspect with go tool pprof")
	}()
	return nil
}

// Busy reports whether a capture is running
func (p *Profiler) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Wait blocks until any running capture finishes
func (p *Profiler) Wait() {
	p.wg.Wait()
}

func (p *Profiler) captureCPUProfile(base string) error {
	f, err := os.Create(filepath.Join(p.dir, base+".cpu.prof"))
	if err != nil {
		return fmt.Errorf("failed to create profile file: %w", err)
	}
	defer f.Close()

	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	time.Sleep(p.captureDuration)
	pprof.StopCPUProfile()
	return nil
}

func (p *Profiler) captureTrace(base string) error {
	f, err := os.Create(filepath.Join(p.dir, base+".trace"))
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	defer f.Close()

	if err := trace.Start(f); err != nil {
		return fmt.Errorf("failed to start trace: %w", err)
	}
	time.Sleep(p.captureDuration)
	trace.Stop()
	return nil
}

// FrameMonitor measures frames per second over half-second windows and
// triggers the profiler on sustained drops
type FrameMonitor struct {
	Profiler *Profiler
	MinFPS   float64
	// Warmup ignores drops until this much time has been observed
	Warmup float64

	fps     float64
	frames  int
	window  float64
	elapsed float64
	log     zerolog.Logger
}

// NewFrameMonitor creates a monitor; profiler may be nil
func NewFrameMonitor(profiler *Profiler, minFPS float64, log zerolog.Logger) *FrameMonitor {
	return &FrameMonitor{
		Profiler: profiler,
		MinFPS:   minFPS,
		Warmup:   3,
		fps:      60,
		log:      log,
	}
}

// Observe records one frame of dt seconds and reports whether a capture
// was started
func (m *FrameMonitor) Observe(dt float64) bool {
	m.elapsed += dt
	m.window += dt
	m.frames++
	if m.window < 0.5 {
		return false
	}

	m.fps = float64(m.frames) / m.window
	m.frames = 0
	m.window = 0

	if m.Profiler == nil || m.elapsed < m.Warmup || m.fps >= m.MinFPS {
		return false
	}
	if err := m.Profiler.Capture(fmt.Sprintf("fps%.0f", m.fps)); err != nil {
		m.log.Debug().Err(err).Float64("fps", m.fps).Msg("frame drop not profiled")
		return false
	}
	m.log.Warn().Float64("fps", m.fps).Msg("frame drop detected, profiling")
	return true
}

// FPS returns the rate measured over the last window
func (m *FrameMonitor) FPS() float64 {
	return m.fps
}
