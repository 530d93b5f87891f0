package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// StubProvider accepts every valid request without calling the gateway; for development.
type StubProvider struct{}

// StubTokenSource pairs with StubProvider so no token exchange happens either.
func StubTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "stub", TokenType: "Bearer"})
}

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest, token *oauth2.Token) (*PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &PaymentResponse{
		CheckoutRequestID:   fmt.Sprintf("ws_CO_stub_%s", uuid.NewString()),
		MerchantRequestID:   uuid.NewString(),
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     "Success. Request accepted for processing",
		RequestedAt:         time.Now(),
	}, nil
}
