package relief

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"relief/internal/models"
	"time"
)

// Request bounds for generated traffic. Max values are exclusive.
const (
	minGeneratedFood     = 10
	maxGeneratedFood     = 60
	minGeneratedWater    = 10
	maxGeneratedWater    = 60
	minGeneratedMedicine = 5
	maxGeneratedMedicine = 35
)

// Submitter accepts new relief requests.
type Submitter interface {
	Submit(ctx context.Context, req *models.ReliefRequest) (*models.ReliefRequest, error)
}

// Generator submits random relief requests at random intervals. It is not
// safe for concurrent use; run one Generator per goroutine.
type Generator struct {
	submitter   Submitter
	locations   []string
	minInterval time.Duration
	maxInterval time.Duration
	rng         *rand.Rand
	logger      *slog.Logger
}

// NewGenerator creates a generator from the simulation settings. A non-zero
// Seed makes the request stream reproducible.
func NewGenerator(submitter Submitter, cfg models.SimulationConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Generator{
		submitter:   submitter,
		locations:   cfg.Locations,
		minInterval: cfg.MinInterval,
		maxInterval: cfg.MaxInterval,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:      logger,
	}
}

// Next builds a random request. ID and timestamp are left for Submit.
// Without configured locations the request has an empty location and
// Submit rejects it.
func (g *Generator) Next() *models.ReliefRequest {
	var location string
	if len(g.locations) > 0 {
		location = g.locations[g.rng.IntN(len(g.locations))]
	}
	return &models.ReliefRequest{
		Location: location,
		Urgency:  models.MinUrgency + g.rng.IntN(models.MaxUrgency-models.MinUrgency+1),
		Needs: models.Stock{
			Food:     minGeneratedFood + g.rng.IntN(maxGeneratedFood-minGeneratedFood),
			Water:    minGeneratedWater + g.rng.IntN(maxGeneratedWater-minGeneratedWater),
			Medicine: minGeneratedMedicine + g.rng.IntN(maxGeneratedMedicine-minGeneratedMedicine),
		},
	}
}

// NextInterval returns a random wait in [minInterval, maxInterval).
func (g *Generator) NextInterval() time.Duration {
	spread := g.maxInterval - g.minInterval
	if spread <= 0 {
		return g.minInterval
	}
	return g.minInterval + time.Duration(g.rng.Int64N(int64(spread)))
}

// Run submits a request after every random interval until ctx is done.
// Submit failures are logged and do not stop the loop.
func (g *Generator) Run(ctx context.Context) error {
	timer := time.NewTimer(g.NextInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if _, err := g.submitter.Submit(ctx, g.Next()); err != nil {
				g.logger.ErrorContext(ctx, "failed to submit generated request", "error", err)
			}
			timer.Reset(g.NextInterval())
		}
	}
}
