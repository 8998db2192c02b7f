package payment

import (
	"payment-gateway/internal/models"
	"payment-gateway/internal/utils"
)

func toBankRequest(req models.PaymentRequest) models.BankPaymentRequest {
	return models.BankPaymentRequest{
		CardNumber: req.CardNumber,
		ExpiryDate: utils.FormatExpiryDate(req.ExpiryMonth, req.ExpiryYear),
		Currency:   req.Currency,
		Amount:     req.Amount,
		CVV:        req.CVV,
	}
}

func newPayment(id string, status models.PaymentStatus, lastFour int, req models.PaymentRequest) *models.Payment {
	return &models.Payment{
		ID:                 id,
		Status:             status,
		CardNumberLastFour: lastFour,
		ExpiryMonth:        utils.FormatExpiryMonth(req.ExpiryMonth),
		ExpiryYear:         utils.FormatExpiryYear(req.ExpiryYear),
		Currency:           models.Currency(req.Currency),
		Amount:             req.Amount,
	}
}

func toPaymentResponse(id string, status models.PaymentStatus, lastFour int, req models.PaymentRequest) *models.PaymentResponse {
	return &models.PaymentResponse{
		ID:                 id,
		Status:             status,
		CardNumberLastFour: lastFour,
		ExpiryMonth:        req.ExpiryMonth,
		ExpiryYear:         req.ExpiryYear,
		Currency:           req.Currency,
		Amount:             req.Amount,
	}
}

func toGetPaymentResponse(p *models.Payment) *models.GetPaymentResponse {
	return &models.GetPaymentResponse{
		ID:                 p.ID,
		Status:             p.Status.String(),
		CardNumberLastFour: p.CardNumberLastFour,
		ExpiryMonth:        p.ExpiryMonth,
		ExpiryYear:         p.ExpiryYear,
		Currency:           p.Currency.String(),
		Amount:             p.Amount,
	}
}

func toPaymentEvent(p *models.Payment) models.PaymentEvent {
	return models.PaymentEvent{
		PaymentID: p.ID,
		Status:    p.Status,
		Amount:    p.Amount,
		Currency:  p.Currency.String(),
	}
}
