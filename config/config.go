// Package config loads game settings from defaults, an optional file and
// CARBALL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"carball/input"
	"carball/vehicle"
)

// EnvPrefix is prepended to environment overrides, e.g. CARBALL_LOG_LEVEL
const EnvPrefix = "CARBALL"

// Vec is a config-friendly 3-vector
type Vec struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

// Vec3 converts to a math vector
func (v Vec) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// WindowConfig sets up the ebiten window and loop
type WindowConfig struct {
	Title     string `mapstructure:"title"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	TPS       int    `mapstructure:"tps"`
	Resizable bool   `mapstructure:"resizable"`
}

// PhysicsConfig sets the fixed step and gravity
type PhysicsConfig struct {
	FixedDelta    float64 `mapstructure:"fixedDelta"`
	MaxFixedSteps int     `mapstructure:"maxFixedSteps"`
	Gravity       float64 `mapstructure:"gravity"`
}

// ArenaConfig sizes the walled box the game is played in
type ArenaConfig struct {
	Width  float64 `mapstructure:"width"`
	Length float64 `mapstructure:"length"`
	Height float64 `mapstructure:"height"`
}

// CarConfig selects a preset; per-key overrides live under car.tuning
type CarConfig struct {
	Preset string `mapstructure:"preset"`
	Spawn  Vec    `mapstructure:"spawn"`
}

// BallConfig describes the ball
type BallConfig struct {
	Radius      float64 `mapstructure:"radius"`
	Mass        float64 `mapstructure:"mass"`
	Restitution float64 `mapstructure:"restitution"`
	Spawn       Vec     `mapstructure:"spawn"`
}

// CameraConfig tunes the rig and the ball-focus switch
type CameraConfig struct {
	FOV          float64 `mapstructure:"fov"`
	Damping      float64 `mapstructure:"damping"`
	Distance     float64 `mapstructure:"distance"`
	MinHeight    float64 `mapstructure:"minHeight"`
	PlayerOffset Vec     `mapstructure:"playerOffset"`
}

// AudioConfig controls the output device
type AudioConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	SampleRate int           `mapstructure:"sampleRate"`
	Buffer     time.Duration `mapstructure:"buffer"`
	Volume     float64       `mapstructure:"volume"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// TelemetryConfig controls metrics and the event store
type TelemetryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	QueueSize int    `mapstructure:"queueSize"`
}

// DebugConfig controls frame-drop profiling; an empty ProfileDir disables it
type DebugConfig struct {
	ProfileDir      string        `mapstructure:"profileDir"`
	ProfileDuration time.Duration `mapstructure:"profileDuration"`
	MinFPS          float64       `mapstructure:"minFPS"`
}

// Config holds every game setting
type Config struct {
	Window    WindowConfig    `mapstructure:"window"`
	Physics   PhysicsConfig   `mapstructure:"physics"`
	Arena     ArenaConfig     `mapstructure:"arena"`
	Car       CarConfig       `mapstructure:"car"`
	Ball      BallConfig      `mapstructure:"ball"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Input     input.Bindings  `mapstructure:"input"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Debug     DebugConfig     `mapstructure:"debug"`

	v *viper.Viper
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:     "carball",
			Width:     1280,
			Height:    720,
			TPS:       120,
			Resizable: true,
		},
		Physics: PhysicsConfig{
			FixedDelta:    0.02,
			MaxFixedSteps: 8,
			Gravity:       9.81,
		},
		Arena: ArenaConfig{
			Width:  40,
			Length: 60,
			Height: 20,
		},
		Car: CarConfig{
			Preset: "standard",
			Spawn:  Vec{Y: 0.3, Z: 10},
		},
		Ball: BallConfig{
			Radius:      1.0,
			Mass:        3,
			Restitution: 0.7,
			Spawn:       Vec{Y: 4},
		},
		Camera: CameraConfig{
			FOV:          70,
			Damping:      0.08,
			Distance:     2,
			MinHeight:    0.75,
			PlayerOffset: Vec{Y: 0.75, Z: 2},
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Buffer:     100 * time.Millisecond,
			Volume:     0.8,
		},
		Input: input.DefaultBindings(),
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Enabled:   false,
			Driver:    "sqlite",
			DSN:       "carball.db",
			QueueSize: 256,
		},
		Debug: DebugConfig{
			ProfileDuration: 5 * time.Second,
			MinFPS:          45,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.tps", d.Window.TPS)
	v.SetDefault("window.resizable", d.Window.Resizable)

	v.SetDefault("physics.fixedDelta", d.Physics.FixedDelta)
	v.SetDefault("physics.maxFixedSteps", d.Physics.MaxFixedSteps)
	v.SetDefault("physics.gravity", d.Physics.Gravity)

	v.SetDefault("arena.width", d.Arena.Width)
	v.SetDefault("arena.length", d.Arena.Length)
	v.SetDefault("arena.height", d.Arena.Height)

	v.SetDefault("car.preset", d.Car.Preset)
	setVecDefault(v, "car.spawn", d.Car.Spawn)

	v.SetDefault("ball.radius", d.Ball.Radius)
	v.SetDefault("ball.mass", d.Ball.Mass)
	v.SetDefault("ball.restitution", d.Ball.Restitution)
	setVecDefault(v, "ball.spawn", d.Ball.Spawn)

	v.SetDefault("camera.fov", d.Camera.FOV)
	v.SetDefault("camera.damping", d.Camera.Damping)
	v.SetDefault("camera.distance", d.Camera.Distance)
	v.SetDefault("camera.minHeight", d.Camera.MinHeight)
	setVecDefault(v, "camera.playerOffset", d.Camera.PlayerOffset)

	v.SetDefault("audio.enabled", d.Audio.Enabled)
	v.SetDefault("audio.sampleRate", d.Audio.SampleRate)
	v.SetDefault("audio.buffer", d.Audio.Buffer)
	v.SetDefault("audio.volume", d.Audio.Volume)

	v.SetDefault("input.deadzone", d.Input.Deadzone)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.driver", d.Telemetry.Driver)
	v.SetDefault("telemetry.dsn", d.Telemetry.DSN)
	v.SetDefault("telemetry.queueSize", d.Telemetry.QueueSize)

	v.SetDefault("debug.profileDir", d.Debug.ProfileDir)
	v.SetDefault("debug.profileDuration", d.Debug.ProfileDuration)
	v.SetDefault("debug.minFPS", d.Debug.MinFPS)
}

func setVecDefault(v *viper.Viper, key string, vec Vec) {
	v.SetDefault(key+".x", vec.X)
	v.SetDefault(key+".y", vec.Y)
	v.SetDefault(key+".z", vec.Z)
}

// Load reads configuration. With an empty path it looks for an optional
// carball.* file in the working directory; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("carball")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.Input = mergeBindings(input.DefaultBindings(), cfg.Input)
	cfg.v = v
	return cfg, nil
}

// ConfigFile returns the file the config was read from, if any
func (c Config) ConfigFile() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// ApplyTuning overlays the keys set under car.tuning onto t
func (c Config) ApplyTuning(t *vehicle.Tuning) error {
	if c.v == nil || !c.v.IsSet("car.tuning") {
		return nil
	}
	// curve key lists replace the preset's keys instead of merging by index
	if c.v.IsSet("car.tuning.frictionCurve") {
		t.FrictionCurve.Keys = nil
	}
	if c.v.IsSet("car.tuning.turnCurve") {
		t.TurnCurve.Keys = nil
	}
	if err := c.v.UnmarshalKey("car.tuning", t); err != nil {
		return fmt.Errorf("error decoding car.tuning: %w", err)
	}
	return t.Validate()
}

// mergeBindings keeps every default entry the loaded map does not replace.
// Loaded keys may be lowercased by the config reader.
func mergeBindings(defaults, loaded input.Bindings) input.Bindings {
	out := input.Bindings{
		Deadzone: loaded.Deadzone,
		Axes:     make(map[string]input.AxisBinding),
		Buttons:  make(map[string]input.ButtonBinding),
	}
	for name, b := range defaults.Axes {
		out.Axes[name] = b
	}
	for name, b := range loaded.Axes {
		out.Axes[canonical(name, defaults.Axes)] = b
	}
	for name, b := range defaults.Buttons {
		out.Buttons[name] = b
	}
	for name, b := range loaded.Buttons {
		out.Buttons[canonical(name, defaults.Buttons)] = b
	}
	return out
}

func canonical[T any](name string, known map[string]T) string {
	for k := range known {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return name
}
