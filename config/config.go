package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"stkrelay/internal/domain"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Mpesa     MpesaConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MpesaConfig holds the gateway credentials and endpoints. Required values are
// not validated here; a missing one surfaces when the gateway rejects the call.
type MpesaConfig struct {
	Provider       string
	Environment    string
	ShortCode      string
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	TokenURL       string
	STKURL         string
	CallbackURL    string
	Timeout        time.Duration
	Timezone       string
	SingleFlight   bool

	TransactionType  string
	AccountReference string
	TransactionDesc  string
}

// JWTConfig guards /pay when Secret is set.
type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
	tokenPath         = "/oauth/v1/generate?grant_type=client_credentials"
	stkPath           = "/mpesa/stkpush/v1/processrequest"
)

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() *Config {
	mpesaEnv := getEnv("MPESA_ENVIRONMENT", domain.EnvSandbox)
	baseURL := sandboxBaseURL
	if mpesaEnv == domain.EnvProduction {
		baseURL = productionBaseURL
	}

	appEnv := getEnv("APP_ENV", getEnv("NODE_ENV", "development"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			Env:          appEnv,
			ReadTimeout:  getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Mpesa: MpesaConfig{
			Provider:       getEnv("MPESA_PROVIDER", domain.ProviderDaraja),
			Environment:    mpesaEnv,
			ShortCode:      os.Getenv("BUSINESS_SHORT_CODE"),
			ConsumerKey:    os.Getenv("CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("CONSUMER_SECRET"),
			Passkey:        os.Getenv("PASSKEY"),
			TokenURL:       getEnv("TOKEN_URL", baseURL+tokenPath),
			STKURL:         getEnv("STK_URL", baseURL+stkPath),
			CallbackURL:    os.Getenv("CALLBACK_URL"),
			Timeout:        getDuration("MPESA_TIMEOUT", 30*time.Second),
			Timezone:       getEnv("MPESA_TIMEZONE", "UTC"),
			SingleFlight:   getBool("MPESA_TOKEN_SINGLEFLIGHT", true),

			TransactionType:  getEnv("MPESA_TRANSACTION_TYPE", domain.TransactionTypePayBillOnline),
			AccountReference: getEnv("MPESA_ACCOUNT_REFERENCE", domain.DefaultAccountReference),
			TransactionDesc:  getEnv("MPESA_TRANSACTION_DESC", domain.DefaultTransactionDesc),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("API_JWT_SECRET"),
			Issuer: getEnv("API_JWT_ISSUER", "stkrelay"),
			Expiry: getDuration("API_JWT_EXPIRY", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}
}

// MissingMpesa lists the gateway settings that are empty.
func (c *Config) MissingMpesa() []string {
	var missing []string
	check := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check("BUSINESS_SHORT_CODE", c.Mpesa.ShortCode)
	check("CONSUMER_KEY", c.Mpesa.ConsumerKey)
	check("CONSUMER_SECRET", c.Mpesa.ConsumerSecret)
	check("PASSKEY", c.Mpesa.Passkey)
	check("CALLBACK_URL", c.Mpesa.CallbackURL)
	return missing
}

// Location resolves the timestamp timezone, falling back to UTC.
func (m MpesaConfig) Location() *time.Location {
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getDuration accepts Go durations ("30s") or plain seconds ("30").
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
