package bank

import "payment-gateway/internal/models"

// Outcome tells which half of a Result is populated.
type Outcome int

const (
	// OutcomeAnswered means the bank made a decision; see Response.Authorized.
	OutcomeAnswered Outcome = iota
	// OutcomeRejected means the bank refused to consider the request.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Rejection is a 4xx refusal the bank will repeat on every retry.
type Rejection struct {
	StatusCode int
	Reason     string
}

// Result is the resolved outcome of an authorization call. Exactly one of
// Response and Rejection is set, matching Outcome. System failures are
// reported through the error return instead.
type Result struct {
	Outcome   Outcome
	Response  *models.BankPaymentResponse
	Rejection *Rejection
}

func answered(resp *models.BankPaymentResponse) Result {
	return Result{Outcome: OutcomeAnswered, Response: resp}
}

func rejected(statusCode int, reason string) Result {
	return Result{Outcome: OutcomeRejected, Rejection: &Rejection{StatusCode: statusCode, Reason: reason}}
}
