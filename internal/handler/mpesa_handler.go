package handler

import (
	"bytes"
	"net/http"

	"stkrelay/internal/domain"
	"stkrelay/internal/metrics"
	"stkrelay/internal/middleware"
	"stkrelay/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type MpesaHandler struct {
	tokens   oauth2.TokenSource
	provider payment.Provider
	logger   *zap.Logger
}

func NewMpesaHandler(tokens oauth2.TokenSource, provider payment.Provider, logger *zap.Logger) *MpesaHandler {
	return &MpesaHandler{
		tokens:   tokens,
		provider: provider,
		logger:   logger,
	}
}

type payBody struct {
	Phone  payment.PhoneInput `json:"phone"`
	Amount decimal.Decimal    `json:"amount"`
}

// bindPaymentRequest accepts JSON or urlencoded bodies. An empty body binds to an
// empty request so it fails validation rather than parsing.
func bindPaymentRequest(c *gin.Context) (payment.PaymentRequest, error) {
	if c.ContentType() == binding.MIMEPOSTForm {
		var req payment.PaymentRequest
		req.Phone = c.PostForm("phone")
		if raw := c.PostForm("amount"); raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return req, err
			}
			req.Amount = amount
		}
		return req, nil
	}

	raw, err := c.GetRawData()
	if err != nil {
		return payment.PaymentRequest{}, err
	}
	var body payBody
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := binding.JSON.BindBody(raw, &body); err != nil {
			return payment.PaymentRequest{}, err
		}
	}
	return payment.PaymentRequest{Phone: string(body.Phone), Amount: body.Amount}, nil
}

// Pay triggers an STK push on the customer's phone.
func (h *MpesaHandler) Pay(c *gin.Context) {
	reqID := middleware.GetRequestID(c)

	req, err := bindPaymentRequest(c)
	if err != nil {
		h.logger.Warn("invalid payment body", zap.String("request_id", reqID), zap.Error(err))
		metrics.IncSTKPush("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": domain.MsgInvalidBody})
		return
	}
	if err := req.Validate(); err != nil {
		metrics.IncSTKPush("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": domain.MsgMissingFields})
		return
	}

	token, err := h.tokens.Token()
	if err != nil {
		h.logger.Error("token generation error", zap.String("request_id", reqID), zap.Error(err))
		metrics.IncSTKPush("auth_error")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": domain.MsgTokenFailed})
		return
	}

	resp, err := h.provider.InitiatePayment(c.Request.Context(), req, token)
	if err != nil {
		switch payment.KindOf(err) {
		case payment.KindValidation:
			metrics.IncSTKPush("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": domain.MsgMissingFields})
		case payment.KindAuth:
			h.logger.Error("token generation error", zap.String("request_id", reqID), zap.Error(err))
			metrics.IncSTKPush("auth_error")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": domain.MsgTokenFailed})
		default:
			h.logger.Error("payment error", zap.String("request_id", reqID), zap.Error(err))
			metrics.IncSTKPush("gateway_error")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": domain.MsgPaymentFailed})
		}
		return
	}

	metrics.IncSTKPush("success")
	h.logger.Info("payment request initiated",
		zap.String("request_id", reqID),
		zap.String("merchant", middleware.GetMerchant(c)),
		zap.String("checkout_request_id", resp.CheckoutRequestID))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"requestId": resp.CheckoutRequestID,
		"message":   domain.MsgPaymentInitiated,
	})
}
