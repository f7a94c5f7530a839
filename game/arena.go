package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"carball/config"
	"carball/engine"
	"carball/physics"
)

// Arena is the static box the match is played in: a floor at y=0, four
// walls and a ceiling, all facing inward
type Arena struct {
	Width  float64
	Length float64
	Height float64

	Surfaces []*engine.Object
}

// BuildArena adds the arena's planes to the scene
func BuildArena(scene *engine.Scene, cfg config.ArenaConfig) (*Arena, error) {
	hw, hl := cfg.Width/2, cfg.Length/2
	planes := []struct {
		name   string
		point  mgl64.Vec3
		normal mgl64.Vec3
	}{
		{"ground", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0}},
		{"ceiling", mgl64.Vec3{0, cfg.Height, 0}, mgl64.Vec3{0, -1, 0}},
		{"wall-east", mgl64.Vec3{hw, 0, 0}, mgl64.Vec3{-1, 0, 0}},
		{"wall-west", mgl64.Vec3{-hw, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{"wall-north", mgl64.Vec3{0, 0, -hl}, mgl64.Vec3{0, 0, 1}},
		{"wall-south", mgl64.Vec3{0, 0, hl}, mgl64.Vec3{0, 0, -1}},
	}

	a := &Arena{Width: cfg.Width, Length: cfg.Length, Height: cfg.Height}
	for _, p := range planes {
		o := engine.NewObject(p.name, physics.NewPlane(p.name, p.point, p.normal))
		if err := scene.Add(o); err != nil {
			return nil, fmt.Errorf("arena: %w", err)
		}
		a.Surfaces = append(a.Surfaces, o)
	}
	return a, nil
}

// Contains reports whether p lies inside the arena volume
func (a *Arena) Contains(p mgl64.Vec3) bool {
	return p.Y() >= 0 && p.Y() <= a.Height &&
		p.X() >= -a.Width/2 && p.X() <= a.Width/2 &&
		p.Z() >= -a.Length/2 && p.Z() <= a.Length/2
}
