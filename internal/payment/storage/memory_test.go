package storage

import (
	"context"
	"sync"
	"testing"

	"payment-gateway/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payment := &models.Payment{
		ID:                 uuid.New().String(),
		Status:             models.StatusRejected,
		CardNumberLastFour: 1234,
		ExpiryMonth:        "12",
		ExpiryYear:         "2030",
		Currency:           models.CurrencyEUR,
		Amount:             1,
	}

	created, err := store.Create(ctx, payment)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, created.ID)

	fetched, err := store.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, models.StatusRejected, fetched.Status)

	// Mutating the returned copy leaves the stored row untouched
	fetched.Status = models.StatusAuthorized
	again, _ := store.GetByID(ctx, payment.ID)
	assert.Equal(t, models.StatusRejected, again.Status)

	missing, err := store.GetByID(ctx, "unknown")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_RejectsDuplicateID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payment := &models.Payment{ID: "fixed", Status: models.StatusDeclined}
	_, err := store.Create(ctx, payment)
	require.NoError(t, err)

	_, err = store.Create(ctx, &models.Payment{ID: "fixed", Status: models.StatusAuthorized})
	assert.Error(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_RejectsUnknownStatus(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Create(context.Background(), &models.Payment{ID: "blank"})

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New().String()
			_, err := store.Create(ctx, &models.Payment{ID: id, Status: models.StatusAuthorized})
			assert.NoError(t, err)
			_, err = store.GetByID(ctx, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
