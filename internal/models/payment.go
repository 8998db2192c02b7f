package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	StatusAuthorized PaymentStatus = "Authorized"
	StatusDeclined   PaymentStatus = "Declined"
	StatusRejected   PaymentStatus = "Rejected"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusAuthorized, StatusDeclined, StatusRejected:
		return true
	}
	return false
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// SupportedCurrencies is the closed set of currencies the gateway accepts.
var SupportedCurrencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP}

func (c Currency) String() string {
	return string(c)
}

func (c Currency) IsValid() bool {
	for _, supported := range SupportedCurrencies {
		if c == supported {
			return true
		}
	}
	return false
}

// ParseCurrency matches a code exactly against the supported set.
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(code)
	return c, c.IsValid()
}

// Payment is the persisted record of one authorization attempt. Rows are
// written once and never updated.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID                 string        `json:"id" bun:"id,pk,type:varchar(36)"`
	Status             PaymentStatus `json:"status" bun:"status,notnull,type:varchar(20)"`
	CardNumberLastFour int           `json:"card_number_last_four" bun:"card_number_last_four,notnull"`
	ExpiryMonth        string        `json:"expiry_month" bun:"expiry_month,notnull,type:varchar(2)"`
	ExpiryYear         string        `json:"expiry_year" bun:"expiry_year,notnull,type:varchar(4)"`
	Currency           Currency      `json:"currency" bun:"currency,notnull,type:varchar(3)"`
	Amount             int           `json:"amount" bun:"amount,notnull"`
	CreatedAt          time.Time     `json:"created_at" bun:"created_at,notnull,default:current_timestamp"`
}

// PaymentRequest is the client payload. Bounds match the payments table
// columns (INTEGER amount, four-character year).
type PaymentRequest struct {
	CardNumber  string `json:"card_number" validate:"required,digits,min=14,max=19"`
	ExpiryMonth int    `json:"expiry_month" validate:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" validate:"required,max=9999"`
	Currency    string `json:"currency" validate:"required,len=3,currency"`
	Amount      int    `json:"amount" validate:"required,gt=0,max=2147483647"`
	CVV         string `json:"cvv" validate:"required,digits,min=3,max=4"`
}

// PaymentResponse is returned from payment creation.
type PaymentResponse struct {
	ID                 string        `json:"id"`
	Status             PaymentStatus `json:"status"`
	CardNumberLastFour int           `json:"card_number_last_four"`
	ExpiryMonth        int           `json:"expiry_month"`
	ExpiryYear         int           `json:"expiry_year"`
	Currency           string        `json:"currency"`
	Amount             int           `json:"amount"`
}

// GetPaymentResponse is the read projection of a stored Payment, and the
// value held by the result cache.
type GetPaymentResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CardNumberLastFour int    `json:"card_number_last_four"`
	ExpiryMonth        string `json:"expiry_month"`
	ExpiryYear         string `json:"expiry_year"`
	Currency           string `json:"currency"`
	Amount             int    `json:"amount"`
}

type PaymentEvent struct {
	Type      string        `json:"type"`
	PaymentID string        `json:"payment_id"`
	Status    PaymentStatus `json:"status"`
	Amount    int           `json:"amount"`
	Currency  string        `json:"currency"`
	Timestamp time.Time     `json:"timestamp"`
}
