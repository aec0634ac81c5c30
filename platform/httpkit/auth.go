package httpkit

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"pestcrm_backend/platform/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	errMissingToken = "missing token"
	errInvalidToken = "invalid token"

	tokenTypeAccess = "access"
)

// accessClaims is the payload of an access token issued by the identity service.
type accessClaims struct {
	jwt.RegisteredClaims
	Type     string   `json:"type"`
	Roles    []string `json:"roles"`
	TenantID string   `json:"tenant_id"`
}

// ServiceKeyRequired accepts only requests carrying the privileged service key
// as a bearer token.
func ServiceKeyRequired(cfg config.ServiceKeyConfig) gin.HandlerFunc {
	expected := cfg.GetServiceRoleKey()
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if _, ok := bearerToken(authHeader); !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}
		if !ValidServiceKey(authHeader, expected) {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		c.Next()
	}
}

// ValidServiceKey reports whether authHeader is "Bearer <expected>". An empty
// expected key never matches.
func ValidServiceKey(authHeader, expected string) bool {
	token, ok := bearerToken(authHeader)
	if !ok || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

// AuthRequired validates an HMAC-signed access token and stores the caller's
// Identity on the request.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	secret := []byte(cfg.GetJWTAccessSecret())
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}

		id, err := identityFromToken(parser, token, secret)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		SetIdentity(c, id)
		c.Next()
	}
}

func identityFromToken(parser *jwt.Parser, token string, secret []byte) (Identity, error) {
	var claims accessClaims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return Identity{}, err
	}
	if claims.Type != tokenTypeAccess {
		return Identity{}, errors.New("not an access token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, err
	}

	var tenantID *uuid.UUID
	if raw := strings.TrimSpace(claims.TenantID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return Identity{}, err
		}
		tenantID = &parsed
	}
	return NewIdentity(userID, tenantID, claims.Roles...), nil
}

func bearerToken(authHeader string) (string, bool) {
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: message})
}
