package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"stkrelay/internal/domain"
)

// STKCallbackEnvelope is the gateway's asynchronous result payload. Every level is
// optional so a malformed payload surfaces as a missing-field error instead of a panic.
type STKCallbackEnvelope struct {
	Body *STKCallbackBody `json:"Body"`
}

type STKCallbackBody struct {
	StkCallback *STKCallback `json:"stkCallback"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        json.RawMessage   `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata"`
}

type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// CallbackResult is the structured outcome of one STK callback.
type CallbackResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        string
	ResultDesc        string
	Success           bool

	Amount          string
	ReceiptNumber   string
	PhoneNumber     string
	TransactionDate string
	Items           map[string]string
}

// ParseSTKCallback decodes a callback payload. The result code must be the number zero
// for the payment to count as successful. On success Amount, MpesaReceiptNumber and
// PhoneNumber are required; when some are absent the partially filled result is
// returned together with a callback parse error naming them.
func ParseSTKCallback(payload []byte) (*CallbackResult, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var env STKCallbackEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, newError(KindCallbackParse, "decode callback", err)
	}
	if env.Body == nil {
		return nil, newError(KindCallbackParse, "missing Body", nil)
	}
	cb := env.Body.StkCallback
	if cb == nil {
		return nil, newError(KindCallbackParse, "missing Body.stkCallback", nil)
	}

	result := &CallbackResult{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        strings.TrimSpace(string(cb.ResultCode)),
		ResultDesc:        cb.ResultDesc,
		Success:           isZeroResultCode(cb.ResultCode),
		Items:             map[string]string{},
	}
	if !result.Success {
		return result, nil
	}

	if cb.CallbackMetadata == nil {
		return result, newError(KindCallbackParse, "missing Body.stkCallback.CallbackMetadata", nil)
	}
	for _, item := range cb.CallbackMetadata.Item {
		if _, seen := result.Items[item.Name]; seen {
			continue
		}
		result.Items[item.Name] = itemValue(item.Value)
	}

	var missing []string
	lookup := func(name string, dst *string, required bool) {
		v, ok := result.Items[name]
		if !ok {
			if required {
				missing = append(missing, name)
			}
			return
		}
		*dst = v
	}
	lookup(domain.CallbackItemAmount, &result.Amount, true)
	lookup(domain.CallbackItemReceiptNumber, &result.ReceiptNumber, true)
	lookup(domain.CallbackItemPhoneNumber, &result.PhoneNumber, true)
	lookup(domain.CallbackItemTransactionDate, &result.TransactionDate, false)

	if len(missing) > 0 {
		return result, newError(KindCallbackParse, "missing callback items: "+strings.Join(missing, ", "), nil)
	}
	return result, nil
}

// isZeroResultCode is true only for a JSON number equal to zero.
func isZeroResultCode(raw json.RawMessage) bool {
	var n json.Number
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return false
	}
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return false
	}
	f, err := n.Float64()
	return err == nil && f == 0
}

func itemValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
