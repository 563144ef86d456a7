package layout

import (
	"math"

	"github.com/vyuha/portfolioviz/internal/graph"
)

// Point is a 2D coordinate in render space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned bounding rectangle, shaped like the render
// engine's getBoundingBox result.
type Box struct {
	X [2]float64 `json:"x"`
	Y [2]float64 `json:"y"`
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.X[0] + b.X[1]) / 2, Y: (b.Y[0] + b.Y[1]) / 2}
}

// Config configures layout parameters.
type Config struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of force iterations
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for initial placement
}

// DefaultConfig returns the layout used by the server.
func DefaultConfig() Config {
	return Config{Width: 800, Height: 600, Iterations: 50, Padding: 50, Seed: 1}
}

// Layout holds fixed node positions for one graph model. It is immutable
// and safe for concurrent readers.
type Layout struct {
	positions map[int]Point
}

// FromPositions wraps precomputed positions.
func FromPositions(positions map[int]Point) *Layout {
	cp := make(map[int]Point, len(positions))
	for id, p := range positions {
		cp[id] = p
	}
	return &Layout{positions: cp}
}

// Position returns the position of node id.
func (l *Layout) Position(id int) (Point, bool) {
	p, ok := l.positions[id]
	return p, ok
}

// XY adapts Position to graph.Model.RenderData.
func (l *Layout) XY(id int) (float64, float64, bool) {
	p, ok := l.positions[id]
	return p.X, p.Y, ok
}

// Len returns the number of positioned nodes.
func (l *Layout) Len() int { return len(l.positions) }

// BoundingBox returns the bounds of every positioned node accepted by keep.
// A nil keep accepts all nodes. ok is false when no node is accepted.
func (l *Layout) BoundingBox(keep func(id int) bool) (Box, bool) {
	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	found := false
	for id, p := range l.positions {
		if keep != nil && !keep(id) {
			continue
		}
		found = true
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	if !found {
		return Box{}, false
	}
	return Box{X: [2]float64{minX, maxX}, Y: [2]float64{minY, maxY}}, true
}

// Compute runs the force-directed layout over m.
func Compute(m *graph.Model, cfg Config) *Layout {
	return &Layout{positions: NewForceDirected(cfg).positions(m)}
}
