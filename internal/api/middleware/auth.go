package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/eventfinder/ef-aggregator/internal/logger"
)

const (
	// AUTH_USERNAME_KEY is the gin context key holding the authenticated username
	AUTH_USERNAME_KEY = "auth_username"
	// JWT_CLAIMS_KEY is the gin context key holding the parsed JWT claims
	JWT_CLAIMS_KEY = "jwt_claims"
)

// AuthConfig holds authentication configuration. The identity provider is
// external; the API only validates the session token it minted.
type AuthConfig struct {
	// JWTSecret is the HMAC signing secret shared with the identity layer
	JWTSecret string
}

// AuthResult holds the result of authentication
type AuthResult struct {
	Success  bool
	Claims   *jwt.RegisteredClaims
	Username string
	Error    error
}

// Authenticate validates the Authorization header and returns the
// authentication result. The token subject is the stable username.
func Authenticate(authHeader string, cfg AuthConfig) AuthResult {
	result := AuthResult{}

	if authHeader == "" {
		result.Error = errors.New("missing Authorization header")
		return result
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		result.Error = errors.New("invalid Authorization header format")
		return result
	}

	claims, err := validateJWT(parts[1], cfg.JWTSecret)
	if err != nil {
		result.Error = err
		return result
	}
	if claims.Subject == "" {
		result.Error = errors.New("token has no subject")
		return result
	}

	result.Success = true
	result.Claims = claims
	result.Username = claims.Subject
	return result
}

// Auth returns a gin middleware requiring a valid bearer token
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := Authenticate(c.GetHeader("Authorization"), cfg)

		if !result.Success {
			logger.Warn("Authentication failed",
				zap.Error(result.Error),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication failed",
			})
			return
		}

		c.Set(AUTH_USERNAME_KEY, result.Username)
		c.Set(JWT_CLAIMS_KEY, result.Claims)

		c.Next()
	}
}

// OptionalAuth populates the auth context when a valid token is present but
// lets anonymous requests through
func OptionalAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if result := Authenticate(header, cfg); result.Success {
				c.Set(AUTH_USERNAME_KEY, result.Username)
				c.Set(JWT_CLAIMS_KEY, result.Claims)
			}
		}
		c.Next()
	}
}

// AuthUsername returns the authenticated username stored by Auth
func AuthUsername(c *gin.Context) string {
	return c.GetString(AUTH_USERNAME_KEY)
}

// validateJWT validates an HMAC-signed token and returns its claims
func validateJWT(tokenString, secret string) (*jwt.RegisteredClaims, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
