package relief

import (
	"container/heap"
	"relief/internal/models"
	"sort"
	"sync"
)

// RequestQueue is a thread-safe priority queue of relief requests. Higher
// urgency pops first; equal urgency pops in arrival order.
type RequestQueue struct {
	mu    sync.Mutex
	items requestHeap
	seq   uint64
}

type queuedRequest struct {
	req *models.ReliefRequest
	seq uint64
}

func NewRequestQueue() *RequestQueue {
	return &RequestQueue{}
}

// Push enqueues req.
func (q *RequestQueue) Push(req *models.ReliefRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	heap.Push(&q.items, queuedRequest{req: req, seq: q.seq})
}

// Pop removes the most urgent request. The bool is false when the queue is empty.
func (q *RequestQueue) Pop() (*models.ReliefRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return nil, false
	}
	item := heap.Pop(&q.items).(queuedRequest)
	return item.req, true
}

// Len returns the number of pending requests.
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Snapshot returns copies of the pending requests in pop order.
func (q *RequestQueue) Snapshot() []*models.ReliefRequest {
	q.mu.Lock()
	items := make(requestHeap, len(q.items))
	copy(items, q.items)
	q.mu.Unlock()

	sort.Slice(items, items.Less)

	out := make([]*models.ReliefRequest, len(items))
	for i, item := range items {
		cp := *item.req
		out[i] = &cp
	}
	return out
}

// requestHeap implements heap.Interface.
type requestHeap []queuedRequest

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].req.Urgency != h[j].req.Urgency {
		return h[i].req.Urgency > h[j].req.Urgency
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) {
	*h = append(*h, x.(queuedRequest))
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queuedRequest{}
	*h = old[:n-1]
	return item
}
