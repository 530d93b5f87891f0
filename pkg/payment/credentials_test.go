package payment

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestPassword_ConcatenatesShortCodePasskeyTimestamp(t *testing.T) {
	got := Password("174379", "abc", "20240101120000")
	want := base64.StdEncoding.EncodeToString([]byte("174379abc20240101120000"))
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestBasicAuthHeader_EncodesKeyAndSecret(t *testing.T) {
	got := BasicAuthHeader("key", "secret")
	if got != base64.StdEncoding.EncodeToString([]byte("key:secret")) {
		t.Errorf("unexpected header %s", got)
	}

	// Empty credentials still produce a syntactically valid header.
	if BasicAuthHeader("", "") != "Og==" {
		t.Errorf("expected base64 of ':', got %s", BasicAuthHeader("", ""))
	}
}

func TestTimestamp_FourteenDigitsInUTC(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	c := Credentials{
		Now: func() time.Time {
			return time.Date(2024, 1, 1, 15, 0, 0, 987654321, nairobi)
		},
	}
	got := c.Timestamp()
	if got != "20240101120000" {
		t.Errorf("expected 20240101120000, got %s", got)
	}
	if len(got) != 14 {
		t.Errorf("expected 14 digits, got %d", len(got))
	}
}

func TestTimestamp_UsesConfiguredLocation(t *testing.T) {
	c := Credentials{
		Location: time.FixedZone("EAT", 3*60*60),
		Now: func() time.Time {
			return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		},
	}
	if got := c.Timestamp(); got != "20240101150000" {
		t.Errorf("expected 20240101150000, got %s", got)
	}
}

func TestCredentials_PasswordMatchesTimestamp(t *testing.T) {
	c := Credentials{ShortCode: "174379", Passkey: "abc"}
	ts := "20240101120000"
	if c.Password(ts) != Password("174379", "abc", ts) {
		t.Error("method and package-level password disagree")
	}
}
