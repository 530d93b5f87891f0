package payment

import (
	"encoding/base64"
	"time"
)

const timestampLayout = "20060102150405"

// Credentials holds the merchant secrets used to sign gateway requests.
type Credentials struct {
	ShortCode      string
	Passkey        string
	ConsumerKey    string
	ConsumerSecret string
	// Location of the signed timestamp. Nil means UTC.
	Location *time.Location
	Now      func() time.Time
}

// BasicAuthHeader returns base64("key:secret"). Empty values are encoded as is;
// the gateway rejects them.
func BasicAuthHeader(key, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(key + ":" + secret))
}

// FormatTimestamp renders t as YYYYMMDDHHMMSS, sub-second digits dropped.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Password is base64(shortCode + passkey + timestamp). The timestamp must be the one
// sent in the same request.
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

func (c Credentials) BasicAuthHeader() string {
	return BasicAuthHeader(c.ConsumerKey, c.ConsumerSecret)
}

// Timestamp is regenerated on every call; the gateway checks freshness.
func (c Credentials) Timestamp() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return FormatTimestamp(now().In(loc))
}

func (c Credentials) Password(timestamp string) string {
	return Password(c.ShortCode, c.Passkey, timestamp)
}
