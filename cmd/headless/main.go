// Command headless runs the demo input script against the game scene
// and prints what happened. It opens no window and no sound card, and it
// does not link ebiten or the native audio backend, so it builds on
// machines without display or audio libraries.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"sort"

	"github.com/rs/zerolog"

	"carball/config"
	"carball/game"
	"carball/input"
	"carball/logging"
	"carball/telemetry"
)

func main() {
	configPath := flag.String("config", "", "config file (default: ./carball.* when present)")
	seconds := flag.Float64("seconds", 10, "scene time to simulate")
	fps := flag.Float64("fps", 60, "variable frames per simulated second")
	seed := flag.Uint64("seed", 1, "seed for bounce pitch randomization")
	flag.Parse()

	if *seconds <= 0 || *fps <= 0 {
		fmt.Fprintln(os.Stderr, "seconds and fps must be positive")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = run(cfg, logger, *seconds, 1 / *fps, *seed)
	if err != nil {
		logger.Error().Err(err).Msg("headless run failed")
	}
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger, seconds, dt float64, seed uint64) error {
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Float64("seconds", seconds).Msg("starting headless run")

	tel, err := game.OpenTelemetry(cfg.Telemetry, true, logger)
	if err != nil {
		return err
	}

	in := input.NewScripted()
	g, err := game.NewGame(game.Options{
		Config: cfg,
		Input:  in,
		Events: tel.Sink(),
		Rand:   rand.New(rand.NewPCG(seed, seed)),
		Logger: logger,
	})
	if err != nil {
		_ = tel.Close()
		return fmt.Errorf("building scene: %w", err)
	}

	sum := game.RunScript(g, in, game.DemoScript(), seconds, dt, tel.Memory)
	g.Close()
	if err := tel.Close(); err != nil {
		return fmt.Errorf("closing telemetry: %w", err)
	}

	printSummary(tel.Session, sum)
	return nil
}

func printSummary(session string, s game.Summary) {
	fmt.Printf("session    %s\n", session)
	fmt.Printf("time       %.2fs (%d frames, %d physics steps)\n", s.Seconds, s.Frames, s.Steps)
	fmt.Printf("max speed  %.2f\n", s.MaxSpeed)
	fmt.Printf("car        (%.2f, %.2f, %.2f) grounded=%t upsideDown=%t\n",
		s.Car.X(), s.Car.Y(), s.Car.Z(), s.State.Grounded, s.State.UpsideDown)
	fmt.Printf("ball       (%.2f, %.2f, %.2f)\n", s.Ball.X(), s.Ball.Y(), s.Ball.Z())
	fmt.Printf("camera     ball focus=%t\n", s.BallFocus)

	kinds := make([]string, 0, len(s.Events))
	for k := range s.Events {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	fmt.Println("events")
	for _, k := range kinds {
		fmt.Printf("  %-10s %d\n", k, s.Events[telemetry.Kind(k)])
	}
}
