package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyConfig string

func (k keyConfig) GetServiceRoleKey() string { return string(k) }

type jwtConfig string

func (j jwtConfig) GetJWTAccessSecret() string { return string(j) }

func serve(handler gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, *Identity) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	var seen *Identity
	engine.GET("/", handler, func(c *gin.Context) {
		if id, ok := GetIdentity(c); ok {
			seen = &id
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w, seen
}

func TestServiceKeyRequired(t *testing.T) {
	mw := ServiceKeyRequired(keyConfig("service-key"))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic service-key", http.StatusUnauthorized},
		{"wrong key", "Bearer service-kez", http.StatusUnauthorized},
		{"valid", "Bearer service-key", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := serve(mw, tc.header)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestValidServiceKeyRejectsEmptyExpected(t *testing.T) {
	assert.False(t, ValidServiceKey("Bearer anything", ""))
	assert.True(t, ValidServiceKey("Bearer k", "k"))
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthRequiredSetsIdentity(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	token := signToken(t, "secret", jwt.MapClaims{
		"sub":       userID.String(),
		"type":      "access",
		"tenant_id": tenantID.String(),
		"roles":     []string{"admin"},
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	w, identity := serve(AuthRequired(jwtConfig("secret")), "Bearer "+token)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, identity)
	assert.Equal(t, userID, identity.UserID())
	require.NotNil(t, identity.TenantID())
	assert.Equal(t, tenantID, *identity.TenantID())
	assert.True(t, identity.HasRole("admin"))
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	refresh := signToken(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh"})
	foreign := signToken(t, "other", jwt.MapClaims{"sub": uuid.NewString(), "type": "access"})
	expired := signToken(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "type": "access", "exp": time.Now().Add(-time.Minute).Unix()})

	badSubject := signToken(t, "secret", jwt.MapClaims{"sub": "not-a-uuid", "type": "access"})

	for _, token := range []string{refresh, foreign, expired, badSubject} {
		w, identity := serve(AuthRequired(jwtConfig("secret")), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, identity)
	}
}

func TestAuthRequiredRejectsNonHMACTokens(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "access",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	w, _ := serve(AuthRequired(jwtConfig("secret")), "Bearer "+unsigned)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMustGetIdentityWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/", func(c *gin.Context) {
		if _, ok := MustGetIdentity(c); !ok {
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}
