package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stkrelay/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DarajaConfig configures the STK push call.
type DarajaConfig struct {
	STKURL           string
	CallbackURL      string
	TransactionType  string
	AccountReference string
	TransactionDesc  string
}

// DarajaProvider implements M-Pesa STK push (Lipa Na M-Pesa Online).
type DarajaProvider struct {
	cfg         DarajaConfig
	credentials Credentials
	client      *http.Client
	logger      *zap.Logger
}

func NewDarajaProvider(cfg DarajaConfig, creds Credentials, client *http.Client, logger *zap.Logger) *DarajaProvider {
	if cfg.TransactionType == "" {
		cfg.TransactionType = domain.TransactionTypePayBillOnline
	}
	if cfg.AccountReference == "" {
		cfg.AccountReference = domain.DefaultAccountReference
	}
	if cfg.TransactionDesc == "" {
		cfg.TransactionDesc = domain.DefaultTransactionDesc
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DarajaProvider{
		cfg:         cfg,
		credentials: creds,
		client:      client,
		logger:      logger,
	}
}

// STKPushRequest is the gateway wire format of a payment order attempt.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// gatewayErrorBody is what the gateway returns on rejected requests.
type gatewayErrorBody struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// BuildSTKPushRequest assembles a fresh order attempt. Payer and prompt phone are both the
// normalized number and the short code is both the paybill and the payee.
func (p *DarajaProvider) BuildSTKPushRequest(req PaymentRequest) STKPushRequest {
	phone := NormalizePhone(req.Phone)
	timestamp := p.credentials.Timestamp()
	return STKPushRequest{
		BusinessShortCode: p.credentials.ShortCode,
		Password:          p.credentials.Password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   p.cfg.TransactionType,
		Amount:            req.RoundedAmount(),
		PartyA:            phone,
		PartyB:            p.credentials.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       p.cfg.CallbackURL,
		AccountReference:  p.cfg.AccountReference,
		TransactionDesc:   p.cfg.TransactionDesc,
	}
}

// InitiatePayment sends an STK push. No retry is attempted.
func (p *DarajaProvider) InitiatePayment(ctx context.Context, req PaymentRequest, token *oauth2.Token) (*PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if token == nil {
		return nil, newError(KindAuth, "no access token", nil)
	}
	payload := p.BuildSTKPushRequest(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(KindGateway, "encode stk request", err)
	}

	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.STKURL, bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindGateway, "build stk request", err)
	}
	apiReq.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(apiReq)

	p.logger.Info("sending stk push",
		zap.String("phone", payload.PhoneNumber),
		zap.Int64("amount", payload.Amount),
		zap.String("timestamp", payload.Timestamp))

	resp, err := p.client.Do(apiReq)
	if err != nil {
		p.logger.Error("stk push failed", zap.Error(err))
		return nil, newError(KindGateway, "stk request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("stk push failed", zap.Error(err))
		return nil, newError(KindGateway, "read stk response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logGatewayError(resp.StatusCode, respBody)
		return nil, newError(KindGateway, fmt.Sprintf("stk endpoint returned %d", resp.StatusCode), nil)
	}

	var out stkPushResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		p.logger.Error("stk push failed", zap.Error(err), zap.ByteString("body", respBody))
		return nil, newError(KindGateway, "decode stk response", err)
	}
	p.logger.Info("stk push accepted",
		zap.String("checkout_request_id", out.CheckoutRequestID),
		zap.String("merchant_request_id", out.MerchantRequestID),
		zap.String("response_code", out.ResponseCode))

	return &PaymentResponse{
		CheckoutRequestID:   out.CheckoutRequestID,
		MerchantRequestID:   out.MerchantRequestID,
		ResponseCode:        out.ResponseCode,
		ResponseDescription: out.ResponseDescription,
		CustomerMessage:     out.CustomerMessage,
		RequestedAt:         time.Now(),
	}, nil
}

// logGatewayError logs the structured gateway error when the body carries one,
// else the raw body.
func (p *DarajaProvider) logGatewayError(status int, body []byte) {
	var ge gatewayErrorBody
	if err := json.Unmarshal(body, &ge); err == nil && (ge.ErrorCode != "" || ge.ErrorMessage != "") {
		p.logger.Error("stk push rejected",
			zap.Int("status", status),
			zap.String("request_id", ge.RequestID),
			zap.String("error_code", ge.ErrorCode),
			zap.String("error_message", ge.ErrorMessage))
		return
	}
	p.logger.Error("stk push rejected",
		zap.Int("status", status),
		zap.ByteString("body", body))
}
