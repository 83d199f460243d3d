// Package models - Relief simulation domain types.
//
// A ReliefRequest asks for a bundle of supplies at a location. A Center holds
// stock and fulfills a request only when it can cover the whole bundle; partial
// deliveries are never made. Every dispatch attempt, fulfilled or not, leaves an
// Allocation record behind.
package models

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinUrgency = 1
	MaxUrgency = 10
)

// ErrInsufficientStock is returned by Center.Allocate when the center cannot
// cover the request.
var ErrInsufficientStock = errors.New("insufficient stock")

// Stock is a bundle of relief supplies.
type Stock struct {
	Food     int `json:"food" yaml:"food"`
	Water    int `json:"water" yaml:"water"`
	Medicine int `json:"medicine" yaml:"medicine"`
}

// Covers reports whether s holds at least need of every supply.
func (s Stock) Covers(need Stock) bool {
	return s.Food >= need.Food && s.Water >= need.Water && s.Medicine >= need.Medicine
}

// Sub returns s minus other.
func (s Stock) Sub(other Stock) Stock {
	return Stock{
		Food:     s.Food - other.Food,
		Water:    s.Water - other.Water,
		Medicine: s.Medicine - other.Medicine,
	}
}

func (s Stock) negative() bool {
	return s.Food < 0 || s.Water < 0 || s.Medicine < 0
}

func (s Stock) String() string {
	return fmt.Sprintf("food=%d water=%d medicine=%d", s.Food, s.Water, s.Medicine)
}

// Center is a relief center holding stock at a location.
type Center struct {
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Stock     Stock     `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCenter creates a center from its configuration.
func NewCenter(cfg CenterConfig) *Center {
	return &Center{
		Name:     cfg.Name,
		Location: cfg.Location,
		Stock: Stock{
			Food:     cfg.Food,
			Water:    cfg.Water,
			Medicine: cfg.Medicine,
		},
		UpdatedAt: time.Now().UTC(),
	}
}

// CanFulfill reports whether the center can cover the whole request.
func (c *Center) CanFulfill(req *ReliefRequest) bool {
	return c.Stock.Covers(req.Needs)
}

// Allocate deducts the request's needs from the center's stock.
func (c *Center) Allocate(req *ReliefRequest) error {
	if !c.CanFulfill(req) {
		return fmt.Errorf("center %s cannot cover request %s: %w", c.Name, req.ID, ErrInsufficientStock)
	}
	c.Stock = c.Stock.Sub(req.Needs)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// ReliefRequest is a demand for supplies at a location. Higher urgency is
// served first.
type ReliefRequest struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	Needs     Stock     `json:"needs"`
	Urgency   int       `json:"urgency"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *ReliefRequest) Validate() error {
	if r.Location == "" {
		return errors.New("location is required")
	}
	if r.Urgency < MinUrgency || r.Urgency > MaxUrgency {
		return fmt.Errorf("urgency must be between %d and %d, got %d", MinUrgency, MaxUrgency, r.Urgency)
	}
	if r.Needs.negative() {
		return errors.New("needs cannot be negative")
	}
	return nil
}

func (r *ReliefRequest) String() string {
	return fmt.Sprintf("request %s at %s urgency=%d %s", r.ID, r.Location, r.Urgency, r.Needs)
}

// Allocation records the outcome of dispatching one request.
type Allocation struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Location  string    `json:"location"`
	Center    string    `json:"center,omitempty"`
	Needs     Stock     `json:"needs"`
	Urgency   int       `json:"urgency"`
	Distance  int       `json:"distance"` // -1 when no route to the center is known
	Fulfilled bool      `json:"fulfilled"`
	CreatedAt time.Time `json:"created_at"`
}
