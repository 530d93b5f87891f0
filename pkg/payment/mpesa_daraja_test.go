package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/oauth2"
)

var testToken = &oauth2.Token{AccessToken: "T1", TokenType: "Bearer"}

func testCredentials() Credentials {
	return Credentials{
		ShortCode: "174379",
		Passkey:   "abc",
		Now: func() time.Time {
			return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func newTestProvider(url string, logger *zap.Logger) *DarajaProvider {
	return NewDarajaProvider(DarajaConfig{
		STKURL:      url,
		CallbackURL: "https://merchant.example.com/callback",
	}, testCredentials(), nil, logger)
}

func TestInitiatePayment_BuildsSTKRequest(t *testing.T) {
	var got STKPushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResponseCode":"0","ResponseDescription":"Success","CustomerMessage":"Success"}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, nil)
	resp, err := p.InitiatePayment(context.Background(), PaymentRequest{
		Phone:  "0712345678",
		Amount: decimal.RequireFromString("99.6"),
	}, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CheckoutRequestID != "ws_CO_1" {
		t.Errorf("expected ws_CO_1, got %s", resp.CheckoutRequestID)
	}

	if got.Amount != 100 {
		t.Errorf("expected amount rounded to 100, got %d", got.Amount)
	}
	if got.PartyA != "254712345678" || got.PhoneNumber != "254712345678" {
		t.Errorf("expected normalized phone on PartyA and PhoneNumber, got %s / %s", got.PartyA, got.PhoneNumber)
	}
	if got.BusinessShortCode != "174379" || got.PartyB != "174379" {
		t.Errorf("expected short code on BusinessShortCode and PartyB, got %s / %s", got.BusinessShortCode, got.PartyB)
	}
	if got.Timestamp != "20240101120000" {
		t.Errorf("unexpected timestamp %s", got.Timestamp)
	}
	if got.Password != Password("174379", "abc", got.Timestamp) {
		t.Error("password does not match timestamp")
	}
	if got.TransactionType != "CustomerPayBillOnline" {
		t.Errorf("unexpected transaction type %s", got.TransactionType)
	}
	if got.AccountReference != "Test" || got.TransactionDesc != "Test Payment" {
		t.Errorf("unexpected reference/description %s / %s", got.AccountReference, got.TransactionDesc)
	}
	if got.CallBackURL != "https://merchant.example.com/callback" {
		t.Errorf("unexpected callback url %s", got.CallBackURL)
	}
}

func TestInitiatePayment_MissingPhoneFailsBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, nil)
	_, err := p.InitiatePayment(context.Background(), PaymentRequest{Amount: decimal.NewFromInt(100)}, testToken)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = p.InitiatePayment(context.Background(), PaymentRequest{Phone: "0712345678"}, testToken)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing amount, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected no network call, got %d", calls)
	}
}

func TestInitiatePayment_GatewayErrorIsLoggedNotReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"requestId":"r-1","errorCode":"400.002.02","errorMessage":"Bad Request - Invalid PhoneNumber"}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.InfoLevel)
	p := newTestProvider(srv.URL, zap.New(core))

	_, err := p.InitiatePayment(context.Background(), PaymentRequest{
		Phone:  "12",
		Amount: decimal.NewFromInt(10),
	}, testToken)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	entries := logs.FilterMessage("stk push rejected").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rejection log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["error_code"] != "400.002.02" {
		t.Errorf("expected gateway error code in log, got %v", fields["error_code"])
	}
}

func TestInitiatePayment_TransportErrorIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := newTestProvider(url, nil)
	_, err := p.InitiatePayment(context.Background(), PaymentRequest{
		Phone:  "0712345678",
		Amount: decimal.NewFromInt(1),
	}, testToken)
	if KindOf(err) != KindGateway {
		t.Errorf("expected GATEWAY kind, got %v", err)
	}
}

func TestRoundedAmount_HalfUp(t *testing.T) {
	cases := map[string]int64{
		"99.6": 100,
		"99.5": 100,
		"99.4": 99,
		"1":    1,
		"-0.5": 0,
		"-1.5": -1,
	}
	for in, want := range cases {
		req := PaymentRequest{Amount: decimal.RequireFromString(in)}
		if got := req.RoundedAmount(); got != want {
			t.Errorf("RoundedAmount(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestStubProvider_ReturnsCheckoutID(t *testing.T) {
	s := &StubProvider{}
	tok, err := StubTokenSource().Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := s.InitiatePayment(context.Background(), PaymentRequest{Phone: "0712345678", Amount: decimal.NewFromInt(5)}, tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CheckoutRequestID == "" {
		t.Error("expected a checkout request id")
	}
	if _, err := s.InitiatePayment(context.Background(), PaymentRequest{}, tok); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
