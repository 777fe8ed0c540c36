package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-guard/internal/common/logging"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNilGuardIsPassThrough(t *testing.T) {
	guard := New("", logging.NewDefaultLogger())
	require.Nil(t, guard)

	handler := guard.RequireAuth(okHandler())

	req := httptest.NewRequest("GET", "/authorize", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssueAndValidate(t *testing.T) {
	guard := New(testSecret, logging.NewDefaultLogger())
	require.NotNil(t, guard)

	token, err := guard.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	claims, err := guard.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
}

func TestRequireAuthAcceptsValidBearer(t *testing.T) {
	guard := New(testSecret, logging.NewDefaultLogger())
	token, err := guard.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	handler := guard.RequireAuth(okHandler())

	req := httptest.NewRequest("GET", "/authorize", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	guard := New(testSecret, logging.NewDefaultLogger())
	handler := guard.RequireAuth(okHandler())

	req := httptest.NewRequest("GET", "/authorize", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	guard := New(testSecret, logging.NewDefaultLogger())

	expiredClaims := Claims{
		Subject: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims)
	signed, err := expiredToken.SignedString([]byte(testSecret))
	require.NoError(t, err)

	handler := guard.RequireAuth(okHandler())

	req := httptest.NewRequest("GET", "/authorize", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsWrongSecret(t *testing.T) {
	other := New("ffffffffffffffffffffffffffffffff", logging.NewDefaultLogger())
	token, err := other.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	guard := New(testSecret, logging.NewDefaultLogger())
	handler := guard.RequireAuth(okHandler())

	req := httptest.NewRequest("GET", "/authorize", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	guard := New(testSecret, logging.NewDefaultLogger())

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Subject: "operator"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = guard.Validate(raw)
	assert.Error(t, err)
}
