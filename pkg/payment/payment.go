package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
)

// PaymentRequest is the merchant's simplified "pay now" request.
type PaymentRequest struct {
	Phone  string
	Amount decimal.Decimal
}

// PaymentResponse carries the gateway-issued identifiers of an accepted STK push.
type PaymentResponse struct {
	CheckoutRequestID   string
	MerchantRequestID   string
	ResponseCode        string
	ResponseDescription string
	CustomerMessage     string
	RequestedAt         time.Time
}

// Provider pushes a payment prompt to a customer's phone using an already obtained token.
type Provider interface {
	InitiatePayment(ctx context.Context, req PaymentRequest, token *oauth2.Token) (*PaymentResponse, error)
}

// Validate reports a validation error when phone or amount is absent.
// A zero amount counts as absent.
func (r PaymentRequest) Validate() error {
	if r.Phone == "" || r.Amount.IsZero() {
		return newError(KindValidation, "phone and amount are required", nil)
	}
	return nil
}

var half = decimal.New(5, -1)

// RoundedAmount rounds half up to the nearest integer, so 99.5 becomes 100 and -0.5 becomes 0.
func (r PaymentRequest) RoundedAmount() int64 {
	return r.Amount.Add(half).Floor().IntPart()
}
