package handler

import (
	"net/http"
	"time"

	"stkrelay/internal/metrics"
	"stkrelay/internal/middleware"
	"stkrelay/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MpesaWebhookHandler struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewMpesaWebhookHandler(logger *zap.Logger) *MpesaWebhookHandler {
	return &MpesaWebhookHandler{logger: logger, now: time.Now}
}

// Handle processes the gateway's STK result callback. The response is always
// 200 {success:true}: the gateway redelivers unacknowledged callbacks, and the outcome
// of processing here is only ever logged.
func (h *MpesaWebhookHandler) Handle(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("callback error", zap.Any("panic", r))
			metrics.IncCallback("malformed")
			c.JSON(http.StatusOK, gin.H{"success": true})
		}
	}()

	h.process(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MpesaWebhookHandler) process(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))

	body, err := c.GetRawData()
	if err != nil {
		log.Error("callback error", zap.Error(err))
		metrics.IncCallback("malformed")
		return
	}

	result, err := payment.ParseSTKCallback(body)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if result != nil {
			fields = append(fields, zap.String("checkout_request_id", result.CheckoutRequestID))
		}
		log.Error("callback error", fields...)
		metrics.IncCallback("malformed")
		return
	}

	if !result.Success {
		log.Info("payment failed",
			zap.String("checkout_request_id", result.CheckoutRequestID),
			zap.String("result_code", result.ResultCode),
			zap.String("result_desc", result.ResultDesc))
		metrics.IncCallback("failed")
		return
	}

	log.Info("payment successful",
		zap.String("amount", result.Amount),
		zap.String("mpesa_receipt_number", result.ReceiptNumber),
		zap.String("phone_number", result.PhoneNumber),
		zap.String("transaction_date", result.TransactionDate),
		zap.String("checkout_request_id", result.CheckoutRequestID),
		zap.String("merchant_request_id", result.MerchantRequestID),
		zap.Time("timestamp", h.now().UTC()))
	metrics.IncCallback("success")
}
