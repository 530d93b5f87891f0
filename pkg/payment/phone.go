package payment

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const countryCode = "254"

var phonePrefixes = []string{"254", "+254", "0"}

// NormalizePhone rewrites a leading "254", "+254" or "0" to "254". Only the first
// matching prefix is replaced; anything else passes through unchanged.
func NormalizePhone(phone string) string {
	for _, p := range phonePrefixes {
		if strings.HasPrefix(phone, p) {
			return countryCode + phone[len(p):]
		}
	}
	return phone
}

// PhoneInput accepts a phone number sent either as a JSON string or a JSON number.
type PhoneInput string

func (p *PhoneInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PhoneInput(s)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	if d.IsZero() {
		*p = ""
		return nil
	}
	*p = PhoneInput(d.String())
	return nil
}
