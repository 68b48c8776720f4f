package editor

import (
	"math"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// Placement area and minimum spacing of nodes added without a position.
const (
	areaMinX   = 100
	areaMinY   = 100
	areaWidth  = 600
	areaHeight = 400
	minSpacing = 50
	placeTries = 64
)

// freePosition picks a random position at least minSpacing away from every
// node on both axes. When the area is crowded it settles for the candidate
// with the largest clearance.
func (e *Engine) freePosition() domain.Position {
	var best domain.Position
	bestClearance := -1.0
	for range placeTries {
		p := domain.Position{
			X: math.Round(areaMinX + e.rng.Float64()*areaWidth),
			Y: math.Round(areaMinY + e.rng.Float64()*areaHeight),
		}
		c := e.clearance(p)
		if c >= minSpacing {
			return p
		}
		if c > bestClearance {
			best, bestClearance = p, c
		}
	}
	return best
}

// clearance is the Chebyshev distance from p to the nearest node.
func (e *Engine) clearance(p domain.Position) float64 {
	nearest := math.Inf(1)
	for _, n := range e.graph.Nodes() {
		d := math.Max(math.Abs(n.Position.X-p.X), math.Abs(n.Position.Y-p.Y))
		nearest = math.Min(nearest, d)
	}
	return nearest
}
