package layout

import (
	"math"
	"math/rand"

	"github.com/vyuha/portfolioviz/internal/graph"
)

// ForceDirected implements a seeded Fruchterman-Reingold style layout, so
// the same model always lands in the same place.
type ForceDirected struct {
	config Config
}

// NewForceDirected fills in defaults for zero fields.
func NewForceDirected(cfg Config) *ForceDirected {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Padding == 0 {
		cfg.Padding = def.Padding
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	return &ForceDirected{config: cfg}
}

func (f *ForceDirected) positions(m *graph.Model) map[int]Point {
	ids := m.NodeIDs()
	cfg := f.config

	if len(ids) == 0 {
		return make(map[int]Point)
	}

	// Single node - center it
	if len(ids) == 1 {
		return map[int]Point{ids[0]: {X: cfg.Width / 2, Y: cfg.Height / 2}}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	positions := make(map[int]Point, len(ids))
	for _, id := range ids {
		positions[id] = Point{
			X: rng.Float64()*(cfg.Width-2*cfg.Padding) + cfg.Padding,
			Y: rng.Float64()*(cfg.Height-2*cfg.Padding) + cfg.Padding,
		}
	}

	k := math.Sqrt((cfg.Width * cfg.Height) / float64(len(ids))) // optimal distance
	temperature := cfg.Width / 10.0

	for iter := 0; iter < cfg.Iterations; iter++ {
		forces := make(map[int]Point, len(ids))

		// Repulsion between all pairs
		for i, a := range ids {
			for j := i + 1; j < len(ids); j++ {
				b := ids[j]
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force
				forces[a] = Point{X: forces[a].X + fx, Y: forces[a].Y + fy}
				forces[b] = Point{X: forces[b].X - fx, Y: forces[b].Y - fy}
			}
		}

		// Attraction along edges
		for _, a := range ids {
			for _, b := range m.Neighbors(a) {
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}
				force := (dist * dist) / k
				forces[a] = Point{
					X: forces[a].X - (dx/dist)*force,
					Y: forces[a].Y - (dy/dist)*force,
				}
			}
		}

		// Apply forces with cooling
		cool := 1.0 - float64(iter)/float64(cfg.Iterations)
		for _, id := range ids {
			fx, fy := forces[id].X, forces[id].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				positions[id] = Point{
					X: positions[id].X + (fx/force)*step,
					Y: positions[id].Y + (fy/force)*step,
				}
			}
		}
		temperature *= 0.95
	}

	return normalize(positions, cfg.Width, cfg.Height, cfg.Padding)
}

// normalize scales positions to fit within bounds.
func normalize(positions map[int]Point, width, height, padding float64) map[int]Point {
	l := &Layout{positions: positions}
	box, ok := l.BoundingBox(nil)
	if !ok {
		return positions
	}

	rangeX := box.X[1] - box.X[0]
	rangeY := box.Y[1] - box.Y[0]
	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	out := make(map[int]Point, len(positions))
	for id, p := range positions {
		out[id] = Point{
			X: padding + ((p.X-box.X[0])/rangeX)*targetWidth,
			Y: padding + ((p.Y-box.Y[0])/rangeY)*targetHeight,
		}
	}
	return out
}
