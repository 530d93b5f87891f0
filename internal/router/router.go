package router

import (
	"net/http"
	"time"

	"stkrelay/config"
	"stkrelay/internal/domain"
	"stkrelay/internal/handler"
	"stkrelay/internal/metrics"
	"stkrelay/internal/middleware"
	"stkrelay/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Gateway is the pair of collaborators /pay needs.
type Gateway struct {
	Tokens   oauth2.TokenSource
	Provider payment.Provider
}

// NewGateway builds the token cache and STK provider from configuration, or the stub
// pair when the stub provider is selected.
func NewGateway(cfg *config.Config, logger *zap.Logger) Gateway {
	if cfg.Mpesa.Provider == domain.ProviderStub {
		return Gateway{Tokens: payment.StubTokenSource(), Provider: &payment.StubProvider{}}
	}
	client := &http.Client{Timeout: cfg.Mpesa.Timeout}
	creds := payment.Credentials{
		ShortCode:      cfg.Mpesa.ShortCode,
		Passkey:        cfg.Mpesa.Passkey,
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		Location:       cfg.Mpesa.Location(),
	}
	cache := payment.NewTokenCache(cfg.Mpesa.TokenURL, creds, client, logger.Named("token"))
	cache.SingleFlight = cfg.Mpesa.SingleFlight
	cache.OnRefresh = metrics.ObserveTokenRefresh

	provider := payment.NewDarajaProvider(payment.DarajaConfig{
		STKURL:           cfg.Mpesa.STKURL,
		CallbackURL:      cfg.Mpesa.CallbackURL,
		TransactionType:  cfg.Mpesa.TransactionType,
		AccountReference: cfg.Mpesa.AccountReference,
		TransactionDesc:  cfg.Mpesa.TransactionDesc,
	}, creds, client, logger.Named("mpesa"))

	return Gateway{Tokens: cache, Provider: provider}
}

func Setup(cfg *config.Config, gw Gateway, logger *zap.Logger) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": domain.MsgNotFound})
	})

	mpesaHandler := handler.NewMpesaHandler(gw.Tokens, gw.Provider, logger.Named("pay"))
	mpesaWebhookHandler := handler.NewMpesaWebhookHandler(logger.Named("callback"))
	healthHandler := handler.NewHealthHandler(cfg.Server.Env)

	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, rateWindow(cfg.RateLimit.Window))
	r.POST("/pay", middleware.RateLimit(limiter), middleware.APIAuth(&cfg.JWT), mpesaHandler.Pay)
	r.POST("/callback", mpesaWebhookHandler.Handle)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func rateWindow(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}
