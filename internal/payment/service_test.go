package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"payment-gateway/internal/bank"
	"payment-gateway/internal/logger"
	"payment-gateway/internal/models"
	"payment-gateway/internal/payment/cache"
	"payment-gateway/internal/payment/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Mock implementations
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) CreatePayment(ctx context.Context, req models.BankPaymentRequest) (bank.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(bank.Result), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPaymentProcessed(ctx context.Context, event models.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

const fixedID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func validRequest() models.PaymentRequest {
	return models.PaymentRequest{
		CardNumber:  "2222405343248877",
		ExpiryMonth: 4,
		ExpiryYear:  2025,
		Currency:    "GBP",
		Amount:      100,
		CVV:         "123",
	}
}

func answeredResult(authorized bool) bank.Result {
	return bank.Result{
		Outcome:  bank.OutcomeAnswered,
		Response: &models.BankPaymentResponse{Authorized: authorized, AuthorizationCode: "auth-code"},
	}
}

func rejectedResult(status int) bank.Result {
	return bank.Result{
		Outcome:   bank.OutcomeRejected,
		Rejection: &bank.Rejection{StatusCode: status, Reason: http.StatusText(status)},
	}
}

func newTestService(store Store, c Cache, authorizer Authorizer, events EventPublisher) (*PaymentService, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	s := NewPaymentService(store, c, authorizer, events, logger.NewNopLogger(), 10*time.Minute)
	s.tracer = tp.Tracer("payment-test")
	s.newID = func() string { return fixedID }
	return s, recorder
}

func storedWith(status models.PaymentStatus) interface{} {
	return mock.MatchedBy(func(p *models.Payment) bool {
		return p.ID == fixedID &&
			p.Status == status &&
			p.CardNumberLastFour == 8877 &&
			p.ExpiryMonth == "04" &&
			p.ExpiryYear == "2025" &&
			p.Currency == models.CurrencyGBP &&
			p.Amount == 100
	})
}

func TestCreatePayment_BankOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		result bank.Result
		status models.PaymentStatus
	}{
		{"authorized", answeredResult(true), models.StatusAuthorized},
		{"declined", answeredResult(false), models.StatusDeclined},
		{"rejected 400", rejectedResult(http.StatusBadRequest), models.StatusRejected},
		{"rejected 401", rejectedResult(http.StatusUnauthorized), models.StatusRejected},
		{"rejected 403", rejectedResult(http.StatusForbidden), models.StatusRejected},
		{"rejected 422", rejectedResult(http.StatusUnprocessableEntity), models.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			authorizer := new(MockAuthorizer)
			publisher := new(MockPublisher)

			authorizer.On("CreatePayment", mock.Anything, models.BankPaymentRequest{
				CardNumber: "2222405343248877",
				ExpiryDate: "04/2025",
				Currency:   "GBP",
				Amount:     100,
				CVV:        "123",
			}).Return(tt.result, nil).Once()
			store.On("Create", mock.Anything, storedWith(tt.status)).
				Return(&models.Payment{ID: fixedID, Status: tt.status, Currency: models.CurrencyGBP, Amount: 100}, nil).Once()
			publisher.On("PublishPaymentProcessed", mock.Anything, mock.MatchedBy(func(e models.PaymentEvent) bool {
				return e.PaymentID == fixedID && e.Status == tt.status
			})).Return(nil).Once()

			s, _ := newTestService(store, cache.NewMemoryCache(), authorizer, publisher)

			resp, err := s.CreatePayment(context.Background(), validRequest())

			require.NoError(t, err)
			assert.Equal(t, &models.PaymentResponse{
				ID:                 fixedID,
				Status:             tt.status,
				CardNumberLastFour: 8877,
				ExpiryMonth:        4,
				ExpiryYear:         2025,
				Currency:           "GBP",
				Amount:             100,
			}, resp)
			store.AssertNumberOfCalls(t, "Create", 1)
			authorizer.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestCreatePayment_BankFailureStoresNothing(t *testing.T) {
	store := new(MockStore)
	authorizer := new(MockAuthorizer)
	publisher := new(MockPublisher)

	bankErr := fmt.Errorf("%w after 5 attempts: %w", bank.ErrRetriesExhausted, &bank.TransientError{StatusCode: 503})
	authorizer.On("CreatePayment", mock.Anything, mock.Anything).Return(bank.Result{}, bankErr)

	s, recorder := newTestService(store, cache.NewMemoryCache(), authorizer, publisher)

	resp, err := s.CreatePayment(context.Background(), validRequest())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, bank.ErrRetriesExhausted)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishPaymentProcessed", mock.Anything, mock.Anything)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "PaymentService.CreatePayment", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func TestCreatePayment_MalformedBankResponseStoresNothing(t *testing.T) {
	store := new(MockStore)
	authorizer := new(MockAuthorizer)
	authorizer.On("CreatePayment", mock.Anything, mock.Anything).
		Return(bank.Result{}, fmt.Errorf("%w: empty body", bank.ErrMalformedResponse))

	s, _ := newTestService(store, cache.NewMemoryCache(), authorizer, nil)

	_, err := s.CreatePayment(context.Background(), validRequest())

	assert.ErrorIs(t, err, bank.ErrMalformedResponse)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePayment_InvalidCardNeverReachesBank(t *testing.T) {
	for _, card := range []string{"123", "", "2222-4053-4324-8877"} {
		store := new(MockStore)
		authorizer := new(MockAuthorizer)
		s, _ := newTestService(store, cache.NewMemoryCache(), authorizer, nil)

		req := validRequest()
		req.CardNumber = card

		resp, err := s.CreatePayment(context.Background(), req)

		assert.Nil(t, resp)
		assert.Error(t, err, card)
		authorizer.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestCreatePayment_StoreFailureIsSystemError(t *testing.T) {
	store := new(MockStore)
	authorizer := new(MockAuthorizer)
	publisher := new(MockPublisher)

	authorizer.On("CreatePayment", mock.Anything, mock.Anything).Return(answeredResult(true), nil)
	store.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	s, _ := newTestService(store, cache.NewMemoryCache(), authorizer, publisher)

	resp, err := s.CreatePayment(context.Background(), validRequest())

	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "connection reset")
	publisher.AssertNotCalled(t, "PublishPaymentProcessed", mock.Anything, mock.Anything)
}

func TestCreatePayment_PublishFailureDoesNotFailPayment(t *testing.T) {
	store := storage.NewMemoryStore()
	authorizer := new(MockAuthorizer)
	publisher := new(MockPublisher)

	authorizer.On("CreatePayment", mock.Anything, mock.Anything).Return(answeredResult(true), nil)
	publisher.On("PublishPaymentProcessed", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	s, _ := newTestService(store, cache.NewMemoryCache(), authorizer, publisher)

	resp, err := s.CreatePayment(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, models.StatusAuthorized, resp.Status)
	assert.Equal(t, 1, store.Len())
}

func TestCreatePayment_RejectionIsTraced(t *testing.T) {
	store := storage.NewMemoryStore()
	authorizer := new(MockAuthorizer)
	authorizer.On("CreatePayment", mock.Anything, mock.Anything).Return(rejectedResult(http.StatusUnprocessableEntity), nil)

	s, recorder := newTestService(store, cache.NewMemoryCache(), authorizer, nil)

	_, err := s.CreatePayment(context.Background(), validRequest())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "payment.rejected", spans[0].Events()[0].Name)
}

func TestGetPayment_NotFound(t *testing.T) {
	store := new(MockStore)
	store.On("GetByID", mock.Anything, fixedID).Return(nil, nil)

	s, _ := newTestService(store, cache.NewMemoryCache(), new(MockAuthorizer), nil)

	resp, err := s.GetPayment(context.Background(), fixedID)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestGetPayment_StoreErrorIsNotNotFound(t *testing.T) {
	store := new(MockStore)
	store.On("GetByID", mock.Anything, fixedID).Return(nil, errors.New("db down"))

	s, _ := newTestService(store, cache.NewMemoryCache(), new(MockAuthorizer), nil)

	_, err := s.GetPayment(context.Background(), fixedID)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentNotFound)
}

func TestGetPayment_CacheHitSkipsStore(t *testing.T) {
	store := new(MockStore)
	c := cache.NewMemoryCache()
	cached := &models.GetPaymentResponse{
		ID:                 fixedID,
		Status:             "Declined",
		CardNumberLastFour: 4242,
		ExpiryMonth:        "01",
		ExpiryYear:         "2030",
		Currency:           "EUR",
		Amount:             7,
	}
	c.Set(context.Background(), fixedID, cached, time.Minute)

	s, recorder := newTestService(store, c, new(MockAuthorizer), nil)

	resp, err := s.GetPayment(context.Background(), fixedID)

	require.NoError(t, err)
	assert.Equal(t, cached, resp)
	store.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "cache.lookup", events[0].Name)
	assert.True(t, events[0].Attributes[0].Value.AsBool())
}

func TestGetPayment_MissPopulatesCache(t *testing.T) {
	store := new(MockStore)
	store.On("GetByID", mock.Anything, fixedID).Return(&models.Payment{
		ID:                 fixedID,
		Status:             models.StatusAuthorized,
		CardNumberLastFour: 8877,
		ExpiryMonth:        "04",
		ExpiryYear:         "2025",
		Currency:           models.CurrencyGBP,
		Amount:             100,
	}, nil).Once()

	c := cache.NewMemoryCache()
	s, _ := newTestService(store, c, new(MockAuthorizer), nil)

	first, err := s.GetPayment(context.Background(), fixedID)
	require.NoError(t, err)
	assert.Equal(t, "Authorized", first.Status)
	assert.Equal(t, "GBP", first.Currency)
	assert.Equal(t, "04", first.ExpiryMonth)

	second, err := s.GetPayment(context.Background(), fixedID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	store.AssertNumberOfCalls(t, "GetByID", 1)
	_, ok := c.Get(context.Background(), fixedID)
	assert.True(t, ok)
}

// bankSimulator authorizes only the configured card and answers every
// other request with the given status.
func bankSimulator(t *testing.T, authorizedCard string, otherStatus int) (*bank.Client, *int32) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req models.BankPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.CardNumber == authorizedCard {
			json.NewEncoder(w).Encode(models.BankPaymentResponse{Authorized: true, AuthorizationCode: "ok"})
			return
		}
		w.WriteHeader(otherStatus)
	}))
	t.Cleanup(server.Close)

	policy := bank.RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	return bank.NewClient(server.URL, server.Client(), policy, logger.NewNopLogger()), &calls
}

func TestPaymentFlow_AuthorizedThenRetrieved(t *testing.T) {
	client, _ := bankSimulator(t, "2222405343248877", http.StatusServiceUnavailable)
	store := storage.NewMemoryStore()
	s := NewPaymentService(store, cache.NewMemoryCache(), client, nil, logger.NewNopLogger(), 0)

	created, err := s.CreatePayment(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusAuthorized, created.Status)
	assert.Equal(t, 8877, created.CardNumberLastFour)
	assert.Equal(t, 100, created.Amount)
	assert.Equal(t, "GBP", created.Currency)
	assert.NotEmpty(t, created.ID)

	fetched, err := s.GetPayment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Authorized", fetched.Status)
	assert.Equal(t, "GBP", fetched.Currency)
	assert.Equal(t, 8877, fetched.CardNumberLastFour)
	assert.Equal(t, "04", fetched.ExpiryMonth)
	assert.Equal(t, "2025", fetched.ExpiryYear)
}

func TestPaymentFlow_RejectedIsStored(t *testing.T) {
	client, calls := bankSimulator(t, "none", http.StatusUnprocessableEntity)
	store := storage.NewMemoryStore()
	s := NewPaymentService(store, cache.NewMemoryCache(), client, nil, logger.NewNopLogger(), 0)

	created, err := s.CreatePayment(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, created.Status)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)
}

func TestPaymentFlow_TransientFailuresExhaustWithoutRow(t *testing.T) {
	client, calls := bankSimulator(t, "none", http.StatusBadGateway)
	store := storage.NewMemoryStore()
	s := NewPaymentService(store, cache.NewMemoryCache(), client, nil, logger.NewNopLogger(), 0)

	created, err := s.CreatePayment(context.Background(), validRequest())

	assert.Nil(t, created)
	assert.ErrorIs(t, err, bank.ErrRetriesExhausted)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, int32(5), atomic.LoadInt32(calls))
}
