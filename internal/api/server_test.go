package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mindsy/internal/config"
	"mindsy/internal/logger"
)

func TestToAPIErrorTaxonomy(t *testing.T) {
	cases := []struct {
		status   int
		err      error
		wantCode string
	}{
		{http.StatusBadRequest, errors.New("invalid json: unexpected EOF"), "MS-API-4001"},
		{http.StatusUnauthorized, nil, "MS-API-4010"},
		{http.StatusForbidden, errors.New("file is not owned by requester"), "MS-API-4030"},
		{http.StatusNotFound, nil, "MS-API-4004"},
		{http.StatusMethodNotAllowed, nil, "MS-API-4005"},
		{http.StatusBadGateway, errors.New("notes error 500"), "MS-API-5020"},
		{http.StatusBadGateway, errors.New("notes error 402: insufficient_quota"), "MS-API-5021"},
		{http.StatusBadGateway, errors.New("transcription error 429: rate limit exceeded"), "MS-API-5022"},
		{http.StatusBadGateway, errors.New("render request failed: context deadline exceeded (timeout)"), "MS-API-5023"},
		{http.StatusBadGateway, nil, "MS-API-5020"},
		{http.StatusInternalServerError, errors.New("boom"), "MS-API-5000"},
		{http.StatusInternalServerError, errors.New(`relation "jobs" does not exist`), "MS-DB-5001"},
		{http.StatusInternalServerError, errors.New("dial tcp 127.0.0.1:5432: connection refused"), "MS-DB-5002"},
	}
	for _, tc := range cases {
		got := toAPIError(tc.status, tc.err)
		require.Equal(t, tc.wantCode, got.Code, "status %d err %v", tc.status, tc.err)
		require.NotEmpty(t, got.Message)
	}
}

func TestToAPIErrorValidationMessages(t *testing.T) {
	got := toAPIError(http.StatusBadRequest, errors.New("lecture_title is required"))
	require.Equal(t, "A lecture title is required.", got.Message)

	got = toAPIError(http.StatusBadRequest, errors.New("moving node would create a cycle"))
	require.Contains(t, got.Message, "cycle")
}

func TestWithCORSPreflight(t *testing.T) {
	h := withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/notes", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func stripeSignature(secret, payload string, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + payload))
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	s := &Server{
		cfg: config.Config{StripeWebhookSecret: "whsec_test"},
		log: logger.NewNop(),
	}
	body := `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")
	rec := httptest.NewRecorder()
	s.handleStripeWebhook(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(body))
	rec = httptest.NewRecorder()
	s.handleStripeWebhook(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhookAcceptsSignedUnhandledEvent(t *testing.T) {
	s := &Server{
		cfg: config.Config{StripeWebhookSecret: "whsec_test"},
		log: logger.NewNop(),
	}
	body := `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", stripeSignature("whsec_test", body, time.Now()))
	rec := httptest.NewRecorder()
	s.handleStripeWebhook(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"received":true`)
}

func TestTierForSubscription(t *testing.T) {
	require.Equal(t, "free", tierForSubscription("customer.subscription.deleted", "active"))
	require.Equal(t, "premium", tierForSubscription("customer.subscription.updated", "active"))
	require.Equal(t, "premium", tierForSubscription("customer.subscription.updated", "trialing"))
	require.Equal(t, "free", tierForSubscription("customer.subscription.updated", "canceled"))
}
