package relief

import (
	"container/heap"
	"fmt"
	"math"
	"relief/internal/models"
	"sync"
)

// Edge is one direction of an undirected route.
type Edge struct {
	To       string
	Distance int
}

// Graph is an undirected, weighted graph of locations. It is safe for
// concurrent use.
type Graph struct {
	mu    sync.RWMutex
	adj   map[string][]Edge
	order []string
}

func NewGraph() *Graph {
	return &Graph{adj: make(map[string][]Edge)}
}

// NewGraphFromConfig builds a graph holding every configured location and route.
func NewGraphFromConfig(locations []string, routes []models.RouteConfig) (*Graph, error) {
	g := NewGraph()
	for _, loc := range locations {
		g.AddLocation(loc)
	}
	for _, r := range routes {
		if err := g.AddRoute(r.From, r.To, r.Distance); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddLocation adds a location with no routes. Adding an existing location is a no-op.
func (g *Graph) AddLocation(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addLocation(name)
}

func (g *Graph) addLocation(name string) {
	if _, ok := g.adj[name]; ok {
		return
	}
	g.adj[name] = nil
	g.order = append(g.order, name)
}

// AddRoute connects from and to in both directions, adding either location
// if it is missing.
func (g *Graph) AddRoute(from, to string, distance int) error {
	if distance < 0 {
		return fmt.Errorf("%s-%s: %w", from, to, ErrNegativeDistance)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.addLocation(from)
	g.addLocation(to)
	g.adj[from] = append(g.adj[from], Edge{To: to, Distance: distance})
	if from != to {
		g.adj[to] = append(g.adj[to], Edge{To: from, Distance: distance})
	}
	return nil
}

// Neighbors returns the routes leaving loc.
func (g *Graph) Neighbors(loc string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]Edge, len(g.adj[loc]))
	copy(edges, g.adj[loc])
	return edges
}

// Locations returns every location in insertion order.
func (g *Graph) Locations() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// HasLocation reports whether loc is in the graph.
func (g *Graph) HasLocation(loc string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adj[loc]
	return ok
}

// ShortestPaths runs Dijkstra from start. Unreachable locations are absent
// from the result; a start outside the graph yields only {start: 0}.
func (g *Graph) ShortestPaths(start string) map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	dist := map[string]int{start: 0}
	pq := &distanceHeap{{loc: start, dist: 0}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distanceItem)
		if cur.dist > dist[cur.loc] {
			continue // stale entry
		}
		for _, e := range g.adj[cur.loc] {
			nd := cur.dist + e.Distance
			if nd < 0 {
				nd = math.MaxInt
			}
			if known, ok := dist[e.To]; !ok || nd < known {
				dist[e.To] = nd
				heap.Push(pq, distanceItem{loc: e.To, dist: nd})
			}
		}
	}
	return dist
}

// Distance returns the shortest distance between from and to.
func (g *Graph) Distance(from, to string) (int, bool) {
	d, ok := g.ShortestPaths(from)[to]
	return d, ok
}

type distanceItem struct {
	loc  string
	dist int
}

type distanceHeap []distanceItem

func (h distanceHeap) Len() int           { return len(h) }
func (h distanceHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h distanceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *distanceHeap) Push(x any) { *h = append(*h, x.(distanceItem)) }

func (h *distanceHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
