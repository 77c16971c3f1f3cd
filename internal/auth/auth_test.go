package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilequote/quote-api/internal/auth"
	"go.uber.org/zap"
)

const testSecret = "test-secret-with-enough-entropy"

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)

	token, expiresAt, err := tm.Issue("owner", "Owner")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userCtx, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "owner", userCtx.Subject)
	assert.Equal(t, "Owner", userCtx.DisplayName)
	assert.Equal(t, auth.AuthTypeJWT, userCtx.AuthType)
}

func TestTokenManager_RejectsForeignAndExpiredTokens(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)

	other := auth.NewTokenManager("another-secret", time.Hour)
	foreign, _, err := other.Issue("owner", "Owner")
	require.NoError(t, err)
	_, err = tm.Validate(foreign)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "owner",
			Issuer:    "tilequote",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = tm.Validate(signed)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)

	_, err = tm.Validate("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAuthenticator_Login(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	a := auth.NewAuthenticator("owner", hash, auth.NewTokenManager(testSecret, time.Hour))

	token, _, err := a.Login("owner", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, _, err = a.Login("owner", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = a.Login("someone", "correct horse")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	unconfigured := auth.NewAuthenticator("owner", "", auth.NewTokenManager(testSecret, time.Hour))
	_, _, err = unconfigured.Login("owner", "correct horse")
	assert.ErrorIs(t, err, auth.ErrAuthNotConfigured)
}

func TestMiddleware_Authenticate(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)
	validToken, _, err := tm.Issue("owner", "Owner")
	require.NoError(t, err)

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
		expectedType   auth.AuthType
	}{
		{
			name:           "valid api key",
			headers:        map[string]string{"x-api-key": "key-123"},
			expectedStatus: http.StatusOK,
			expectedType:   auth.AuthTypeAPIKey,
		},
		{
			name:           "invalid api key",
			headers:        map[string]string{"x-api-key": "wrong"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid bearer token",
			headers:        map[string]string{"Authorization": "Bearer " + validToken},
			expectedStatus: http.StatusOK,
			expectedType:   auth.AuthTypeJWT,
		},
		{
			name:           "malformed header",
			headers:        map[string]string{"Authorization": "Token " + validToken},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing header",
			headers:        map[string]string{},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	middleware := auth.NewMiddleware(tm, "key-123", zap.NewNop())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured *auth.UserContext
			handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = auth.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/quotations", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedStatus == http.StatusOK {
				require.NotNil(t, captured)
				assert.Equal(t, tc.expectedType, captured.AuthType)
			}
		})
	}
}
