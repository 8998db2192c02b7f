package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payment-gateway/internal/logger"
	"payment-gateway/internal/models"

	"github.com/uptrace/bun"
)

// BunStore keeps payments in a SQL database through bun. The same queries
// serve both the postgres and sqlite dialects.
type BunStore struct {
	db      *bun.DB
	log     *logger.Logger
	dialect string
}

// NewBunStore wraps an existing connection. The schema is expected to exist.
func NewBunStore(db *bun.DB, log *logger.Logger) *BunStore {
	return &BunStore{
		db:      db,
		log:     log,
		dialect: db.Dialect().Name().String(),
	}
}

// CreateSchema creates the payments table when it is missing. Postgres
// deployments use the SQL migrations instead.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	s.log.LogDatabase("MIGRATE", "payments", fmt.Sprintf("Creating %s table if not exists", s.dialect))

	_, err := s.db.NewCreateTable().
		Model((*models.Payment)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}
	return nil
}

// Create → insert one payment row
func (s *BunStore) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("Saving payment %s", payment.ID))

	if !payment.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, payment.Status)
	}

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.NewInsert().Model(payment).Exec(ctx); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %s", payment.ID, err.Error()))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "payments", fmt.Sprintf("Payment %s saved with status %s", payment.ID, payment.Status))
	return payment, nil
}

// GetByID → fetch one payment by its ID
func (s *BunStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	s.log.LogDatabase("SELECT", "payments", fmt.Sprintf("Fetching payment %s", id))

	var payment models.Payment
	err := s.db.NewSelect().
		Model(&payment).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log.LogDatabase("NOT_FOUND", "payments", fmt.Sprintf("Payment %s not found", id))
			return nil, nil
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment %s: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

func (s *BunStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *BunStore) Close() error {
	s.log.LogDatabase("CLOSE", "payments", fmt.Sprintf("Closing %s payment store connection", s.dialect))
	return s.db.Close()
}
