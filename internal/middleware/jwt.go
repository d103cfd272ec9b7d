package middleware

import (
	"context"
	"net/http"
	"strings"

	"agromarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by AuthRequired.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextClaims = "claims"
	ContextToken  = "token"
)

// Revocations reports whether a token id has been revoked at logout.
type Revocations interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthRequired rejects requests without a valid bearer token and exposes the
// user id and email to handlers. revoked may be nil.
func AuthRequired(issuer *utils.TokenIssuer, revoked Revocations, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Missing or malformed Authorization header")
			return
		}

		claims, err := issuer.ParseJWT(raw)
		if err != nil {
			log.Debug("rejected token", zap.Error(err), zap.String("path", c.FullPath()))
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsTokenRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Warn("token revocation check failed", zap.Error(err))
			}
			if isRevoked {
				abortUnauthorized(c, "Token has been revoked")
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextClaims, claims)
		c.Set(ContextToken, raw)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and lets the
// request through either way.
func OptionalAuth(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := issuer.ParseJWT(raw); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextEmail, claims.Email)
				c.Set(ContextClaims, claims)
			}
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthRequired.
func ClaimsFrom(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	// browsers cannot set headers on websocket upgrades
	if c.IsWebsocket() {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
}
