package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-gateway/internal/models"
)

// MemoryStore keeps payments in a map. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	payments map[string]models.Payment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payments: make(map[string]models.Payment)}
}

func (s *MemoryStore) Create(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !payment.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, payment.Status)
	}
	if _, exists := s.payments[payment.ID]; exists {
		return nil, fmt.Errorf("payment %s already exists", payment.ID)
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	s.payments[payment.ID] = *payment

	stored := *payment
	return &stored, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	return &payment, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

func (s *MemoryStore) HealthCheck(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
