package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-gateway/internal/bank"
	"payment-gateway/internal/logger"
	"payment-gateway/internal/models"
	"payment-gateway/internal/tracing"
	"payment-gateway/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultCacheTTL = 10 * time.Minute

var ErrPaymentNotFound = errors.New("payment not found")

type Store interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByID(ctx context.Context, id string) (*models.Payment, error)
}

type Cache interface {
	Get(ctx context.Context, id string) (*models.GetPaymentResponse, bool)
	Set(ctx context.Context, id string, value *models.GetPaymentResponse, ttl time.Duration)
}

type Authorizer interface {
	CreatePayment(ctx context.Context, req models.BankPaymentRequest) (bank.Result, error)
}

type EventPublisher interface {
	PublishPaymentProcessed(ctx context.Context, event models.PaymentEvent) error
}

// PaymentService authorizes payments against the bank, records every
// resolved attempt and serves reads through the cache.
type PaymentService struct {
	Store  Store
	Cache  Cache
	Bank   Authorizer
	Events EventPublisher
	Log    *logger.Logger

	cacheTTL time.Duration
	tracer   trace.Tracer
	newID    func() string
}

// NewPaymentService wires the service. events may be nil when publishing is
// disabled; a non-positive cacheTTL falls back to DefaultCacheTTL.
func NewPaymentService(store Store, cache Cache, authorizer Authorizer, events EventPublisher, log *logger.Logger, cacheTTL time.Duration) *PaymentService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &PaymentService{
		Store:    store,
		Cache:    cache,
		Bank:     authorizer,
		Events:   events,
		Log:      log,
		cacheTTL: cacheTTL,
		tracer:   tracing.Tracer(),
		newID:    func() string { return uuid.New().String() },
	}
}

// CreatePayment submits req to the bank and records the outcome. Authorized,
// Declined and Rejected outcomes all produce one stored row and a normal
// response. Any other failure returns an error and stores nothing.
func (s *PaymentService) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error) {
	id := s.newID()

	ctx, span := s.tracer.Start(ctx, "PaymentService.CreatePayment",
		trace.WithAttributes(
			attribute.String("payment.id", id),
			attribute.String("payment.currency", req.Currency),
			attribute.Int("payment.amount", req.Amount),
		))
	defer span.End()

	lastFour, err := utils.LastFourDigits(req.CardNumber)
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("invalid card number: %w", err))
	}

	s.Log.LogPayment("AUTHORIZE", id, fmt.Sprintf("Requesting authorization for %d %s", req.Amount, req.Currency))

	result, err := s.Bank.CreatePayment(ctx, toBankRequest(req))
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("bank authorization failed: %w", err))
	}

	var status models.PaymentStatus
	switch result.Outcome {
	case bank.OutcomeAnswered:
		status = models.StatusDeclined
		if result.Response.Authorized {
			status = models.StatusAuthorized
		}
	case bank.OutcomeRejected:
		status = models.StatusRejected
		span.AddEvent("payment.rejected", trace.WithAttributes(
			attribute.Int("bank.status_code", result.Rejection.StatusCode),
			attribute.String("bank.reason", result.Rejection.Reason),
		))
		s.Log.LogPayment("REJECTED", id, fmt.Sprintf("Bank rejected the request with status %d", result.Rejection.StatusCode))
	default:
		return nil, s.fail(span, id, fmt.Errorf("unexpected bank outcome %s", result.Outcome))
	}

	payment, err := s.Store.Create(ctx, newPayment(id, status, lastFour, req))
	if err != nil {
		return nil, s.fail(span, id, fmt.Errorf("failed to store payment: %w", err))
	}

	span.SetAttributes(attribute.String("payment.status", status.String()))
	s.Log.LogPayment("CREATED", id, fmt.Sprintf("Payment stored with status %s", status))

	s.publish(ctx, payment)

	return toPaymentResponse(id, status, lastFour, req), nil
}

// GetPayment returns the cached projection when present, otherwise loads the
// row and caches it. ErrPaymentNotFound signals an unknown id.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.GetPaymentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetPayment",
		trace.WithAttributes(attribute.String("payment.id", id)))
	defer span.End()

	if cached, ok := s.Cache.Get(ctx, id); ok {
		span.AddEvent("cache.lookup", trace.WithAttributes(attribute.Bool("cache.hit", true)))
		return cached, nil
	}
	span.AddEvent("cache.lookup", trace.WithAttributes(attribute.Bool("cache.hit", false)))

	payment, err := s.Store.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store lookup failed")
		return nil, fmt.Errorf("failed to load payment %s: %w", id, err)
	}
	if payment == nil {
		s.Log.LogPayment("NOT_FOUND", id, "No payment with this id")
		return nil, ErrPaymentNotFound
	}

	view := toGetPaymentResponse(payment)
	s.Cache.Set(ctx, id, view, s.cacheTTL)
	return view, nil
}

func (s *PaymentService) fail(span trace.Span, id string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "payment creation failed")
	s.Log.Error("PAYMENT", fmt.Sprintf("[FAILED] %s - %v", id, err))
	return err
}

// publish is best effort; a stored payment is never undone by a Kafka failure.
func (s *PaymentService) publish(ctx context.Context, payment *models.Payment) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishPaymentProcessed(ctx, toPaymentEvent(payment)); err != nil {
		s.Log.Warn("PAYMENT", fmt.Sprintf("Kafka publish error (payment %s): %v", payment.ID, err))
	}
}
