package middleware

import (
	"net/http"
	"strings"

	"stkrelay/config"
	"stkrelay/internal/auth"
	"stkrelay/internal/domain"

	"github.com/gin-gonic/gin"
)

const merchantKey = "merchant"

// APIAuth requires a bearer token signed with the configured secret. With no secret
// configured every request passes.
func APIAuth(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || cfg.Secret == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": domain.MsgUnauthorized})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": domain.MsgUnauthorized})
			return
		}
		c.Set(merchantKey, claims.Subject)
		c.Next()
	}
}

// GetMerchant returns the authenticated merchant subject, empty when auth is off.
func GetMerchant(c *gin.Context) string {
	return c.GetString(merchantKey)
}
