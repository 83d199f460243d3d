package relief

import (
	"errors"
	"relief/internal/models"
)

var (
	// ErrNoPendingRequests is returned by AllocateNext when the queue is empty.
	ErrNoPendingRequests = errors.New("no pending relief requests")

	// ErrInsufficientStock is returned when no center can cover a request.
	ErrInsufficientStock = models.ErrInsufficientStock

	// ErrInvalidRequest wraps request validation failures from Submit.
	ErrInvalidRequest = errors.New("invalid relief request")

	// ErrNegativeDistance is returned by Graph.AddRoute.
	ErrNegativeDistance = errors.New("route distance cannot be negative")
)
