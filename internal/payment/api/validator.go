package api

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"payment-gateway/internal/models"
	"payment-gateway/internal/utils"

	"github.com/go-playground/validator/v10"
)

// newValidator builds the request validator. now supplies the clock for the
// expiry check.
func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return utils.IsDigits(fl.Field().String())
	})
	v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCurrency(fl.Field().String())
		return ok
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(models.PaymentRequest)
		if req.ExpiryMonth < 1 || req.ExpiryMonth > 12 {
			return
		}
		if expiryInPast(req.ExpiryMonth, req.ExpiryYear, now()) {
			sl.ReportError(req.ExpiryYear, "expiry_year", "ExpiryYear", "notexpired", "")
		}
	}, models.PaymentRequest{})

	return v
}

// expiryInPast reports whether month/year is strictly before the current
// calendar month. A card expiring this month is still valid.
func expiryInPast(month, year int, now time.Time) bool {
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

// describeValidation flattens validator errors into a stable, readable list.
func describeValidation(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fieldMessage(fe))
	}
	sort.Strings(messages)
	return strings.Join(messages, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "digits":
		return field + " must contain only digits"
	case "currency":
		return fmt.Sprintf("%s must be one of %s", field, supportedCurrencyList())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "notexpired":
		return "expiry_month and expiry_year must not be in the past"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func supportedCurrencyList() string {
	codes := make([]string, len(models.SupportedCurrencies))
	for i, c := range models.SupportedCurrencies {
		codes[i] = c.String()
	}
	return strings.Join(codes, ", ")
}
