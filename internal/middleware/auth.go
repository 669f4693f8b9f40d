package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/codearena/judge/internal/infrastructure"
)

const (
	// AuthorizationHeader is the header key for the bearer token
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for the bearer token
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for the user ID
	UserIDKey = "userID"
)

// OptionalAuthMiddleware extracts the user identity from a bearer token when
// one is present. The judge surface is public; the token only attributes
// submissions to a user, so a missing or invalid token is not an error.
func OptionalAuthMiddleware(config *infrastructure.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			c.Next()
			return
		}

		if userID, err := subjectFromToken(tokenString, config.SecretKey); err == nil {
			c.Set(UserIDKey, userID)
		}

		c.Next()
	}
}

// GetUserID extracts the authenticated user ID from the gin context
func GetUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}

// subjectFromToken validates the token signature and returns its subject
func subjectFromToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return subject, nil
}
