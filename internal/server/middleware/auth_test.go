package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTAuth(t *testing.T) {
	const secret = "s3cret"
	ok := func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserID(c))
	}
	valid := signed(t, secret, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := []struct {
		name     string
		secret   string
		header   string
		wantCode int
		wantBody string
	}{
		{name: "valid token", secret: secret, header: "Bearer " + valid, wantCode: http.StatusOK, wantBody: "user-1"},
		{name: "disabled", secret: "", header: "", wantCode: http.StatusOK, wantBody: ""},
		{name: "missing header", secret: secret, header: "", wantCode: http.StatusUnauthorized},
		{name: "not bearer", secret: secret, header: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "wrong secret", secret: secret, header: "Bearer " + signed(t, "other", jwt.RegisteredClaims{Subject: "user-1"}), wantCode: http.StatusUnauthorized},
		{name: "expired", secret: secret, header: "Bearer " + signed(t, secret, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}), wantCode: http.StatusUnauthorized},
		{name: "no subject", secret: secret, header: "Bearer " + signed(t, secret, jwt.RegisteredClaims{}), wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/", ok, JWTAuth(tt.secret))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
