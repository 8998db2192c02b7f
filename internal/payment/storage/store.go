package storage

import (
	"context"
	"errors"

	"payment-gateway/internal/models"
)

// ErrInvalidStatus is returned by Create for a status outside the closed set.
var ErrInvalidStatus = errors.New("invalid payment status")

// Store persists payment rows. Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new row. Rows are never updated afterwards.
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	// GetByID returns (nil, nil) when no row exists for id.
	GetByID(ctx context.Context, id string) (*models.Payment, error)

	// Health and maintenance
	HealthCheck(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*BunStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
