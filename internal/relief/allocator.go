package relief

import (
	"fmt"
	"relief/internal/models"
)

// Allocator picks the center that serves a request.
type Allocator struct {
	graph *Graph
}

// NewAllocator creates an allocator. With a nil graph it falls back to
// first-fit in list order.
func NewAllocator(graph *Graph) *Allocator {
	return &Allocator{graph: graph}
}

// Allocate picks the nearest center that can cover req and deducts the stock.
// Centers reachable in the graph are preferred by distance; ties and
// unreachable centers keep list order. The returned distance is -1 when the
// chosen center has no known route to the request.
func (a *Allocator) Allocate(req *models.ReliefRequest, centers []*models.Center) (*models.Center, int, error) {
	var dist map[string]int
	if a.graph != nil {
		dist = a.graph.ShortestPaths(req.Location)
	}

	var (
		chosen       *models.Center
		chosenDist   = -1
		chosenRouted bool
	)
	for _, c := range centers {
		if !c.CanFulfill(req) {
			continue
		}
		d, routed := dist[c.Location]
		switch {
		case chosen == nil:
		case routed && (!chosenRouted || d < chosenDist):
		default:
			continue
		}
		chosen, chosenRouted = c, routed
		chosenDist = -1
		if routed {
			chosenDist = d
		}
	}

	if chosen == nil {
		return nil, -1, fmt.Errorf("request %s at %s: %w", req.ID, req.Location, ErrInsufficientStock)
	}
	if err := chosen.Allocate(req); err != nil {
		return nil, -1, err
	}
	return chosen, chosenDist, nil
}
