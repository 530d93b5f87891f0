package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// TokenSafetyMargin is subtracted from the gateway's stated token lifetime so a
// token is never used when it could expire in flight.
const TokenSafetyMargin = time.Minute

// TokenCache hands out a bearer token, refreshing it through a client-credentials
// exchange when the cached one is missing or past its expiry.
//
// The cached token is swapped atomically. Refreshes are deduplicated through a
// singleflight group unless SingleFlight is disabled, in which case racing callers
// may each perform a refresh; that is harmless since refreshes are idempotent.
type TokenCache struct {
	tokenURL    string
	credentials Credentials
	client      *http.Client
	logger      *zap.Logger

	SingleFlight bool
	Now          func() time.Time
	// OnRefresh, when set, observes the outcome of each exchange.
	OnRefresh func(err error)

	current atomic.Pointer[oauth2.Token]
	group   singleflight.Group
}

func NewTokenCache(tokenURL string, creds Credentials, client *http.Client, logger *zap.Logger) *TokenCache {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenCache{
		tokenURL:     tokenURL,
		credentials:  creds,
		client:       client,
		logger:       logger,
		SingleFlight: true,
	}
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

func (c *TokenCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Token implements oauth2.TokenSource.
func (c *TokenCache) Token() (*oauth2.Token, error) {
	return c.TokenContext(context.Background())
}

// GetToken returns the raw access token value.
func (c *TokenCache) GetToken(ctx context.Context) (string, error) {
	tok, err := c.TokenContext(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// TokenContext returns the cached token while now < expiry, otherwise refreshes.
// A failed refresh leaves the previously cached token in place.
func (c *TokenCache) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	if tok := c.current.Load(); tok != nil && c.now().Before(tok.Expiry) {
		return tok, nil
	}
	if !c.SingleFlight {
		return c.refresh(ctx)
	}
	v, err, _ := c.group.Do("token", func() (interface{}, error) {
		if tok := c.current.Load(); tok != nil && c.now().Before(tok.Expiry) {
			return tok, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// Cached returns the currently stored token, which may be expired, or nil.
func (c *TokenCache) Cached() *oauth2.Token {
	return c.current.Load()
}

func (c *TokenCache) refresh(ctx context.Context) (tok *oauth2.Token, err error) {
	defer func() {
		if c.OnRefresh != nil {
			c.OnRefresh(err)
		}
	}()
	issuedAt := c.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tokenURL, nil)
	if err != nil {
		return nil, newError(KindAuth, "build token request", err)
	}
	req.Header.Set("Authorization", "Basic "+c.credentials.BasicAuthHeader())

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("token request failed", zap.Error(err))
		return nil, newError(KindAuth, "token request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindAuth, "read token response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("token endpoint rejected credentials",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, newError(KindAuth, fmt.Sprintf("token endpoint returned %d", resp.StatusCode), nil)
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, newError(KindAuth, "decode token response", err)
	}
	if out.AccessToken == "" {
		return nil, newError(KindAuth, "token response has no access_token", nil)
	}

	var lifetime time.Duration
	if out.ExpiresIn != "" {
		secs, err := out.ExpiresIn.Float64()
		if err != nil {
			return nil, newError(KindAuth, "invalid expires_in", err)
		}
		lifetime = time.Duration(secs * float64(time.Second))
	}

	tok = &oauth2.Token{
		AccessToken: out.AccessToken,
		TokenType:   "Bearer",
		Expiry:      issuedAt.Add(lifetime - TokenSafetyMargin),
	}
	c.current.Store(tok)
	c.logger.Info("access token refreshed", zap.Time("expires_at", tok.Expiry))
	return tok, nil
}
