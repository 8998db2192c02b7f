package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"payment-gateway/internal/logger"
	"payment-gateway/internal/models"
	"payment-gateway/internal/payment"
	"payment-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxRequestBytes = 1 << 16

type PaymentService interface {
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*models.GetPaymentResponse, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	Payments PaymentService
	Log      *logger.Logger
	Checks   map[string]HealthCheck

	validate *validator.Validate
}

func NewHandler(payments PaymentService, log *logger.Logger, checks map[string]HealthCheck) *Handler {
	return newHandlerWithClock(payments, log, checks, time.Now)
}

func newHandlerWithClock(payments PaymentService, log *logger.Logger, checks map[string]HealthCheck, now func() time.Time) *Handler {
	return &Handler{
		Payments: payments,
		Log:      log,
		Checks:   checks,
		validate: newValidator(now),
	}
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest

	// Decode the incoming JSON body into a PaymentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Validation failed", describeValidation(err)))
		return
	}

	resp, err := h.Payments.CreatePayment(r.Context(), req)
	if err != nil {
		h.Log.Error("API", fmt.Sprintf("Payment creation failed: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Payment could not be processed", "internal error"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Only uuid-shaped ids can exist
	if _, err := uuid.Parse(id); err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Payment not found", "unknown payment id"))
		return
	}

	resp, err := h.Payments.GetPayment(r.Context(), id)
	if errors.Is(err, payment.ErrPaymentNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Payment not found", "unknown payment id"))
		return
	}
	if err != nil {
		h.Log.Error("API", fmt.Sprintf("Payment lookup failed for %s: %v", id, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Payment could not be retrieved", "internal error"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			h.Log.Warn("HEALTH", fmt.Sprintf("%s check failed: %v", name, err))
			status[name] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	utils.WriteJSON(w, code, status)
}
