package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	v := NewVerifier("test-secret")
	token, err := v.Sign("user-1", time.Hour)
	require.NoError(t, err)

	uid, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", uid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a").Sign("user-1", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("secret-b").Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewVerifier("test-secret")
	token, err := v.Sign("user-1", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	require.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	v := NewVerifier("test-secret")
	var gotUser string
	h := RequireAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Missing header.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "MS-API-4010")

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "MS-API-4010")

	// Valid token.
	token, err := v.Sign("user-9", time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-9", gotUser)
}
