package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mindsy/internal/models"
	"mindsy/internal/storage"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxWebhookBody = 1 << 16

// handleStripeWebhook is the only unauthenticated mutation endpoint; the
// signature check is what stands in for auth here, so an unverifiable
// payload is rejected before anything is read out of it.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read payload: %w", err))
		return
	}
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), s.cfg.StripeWebhookSecret)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("verify signature: %w", err))
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		userID := session.ClientReferenceID
		if userID == "" {
			s.log.Warn("checkout session without client_reference_id", "session", session.ID)
			break
		}
		sub := models.Subscription{
			UserID: userID,
			Tier:   "premium",
		}
		if session.Customer != nil {
			sub.StripeCustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			sub.StripeSubID = session.Subscription.ID
		}
		if err := s.subRepo.Upsert(r.Context(), sub); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	case "customer.subscription.updated", "customer.subscription.deleted":
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if stripeSub.Customer == nil {
			break
		}
		userID, err := s.subRepo.UserIDForCustomer(r.Context(), stripeSub.Customer.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.log.Warn("subscription event for unknown customer", "customer", stripeSub.Customer.ID)
				break
			}
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		sub := models.Subscription{
			UserID:           userID,
			Tier:             tierForSubscription(event.Type, stripeSub.Status),
			StripeCustomerID: stripeSub.Customer.ID,
			StripeSubID:      stripeSub.ID,
		}
		if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 {
			item := stripeSub.Items.Data[0]
			if item.CurrentPeriodStart > 0 {
				t := time.Unix(item.CurrentPeriodStart, 0).UTC()
				sub.CurrentPeriodStart = &t
			}
			if item.CurrentPeriodEnd > 0 {
				t := time.Unix(item.CurrentPeriodEnd, 0).UTC()
				sub.CurrentPeriodEnd = &t
			}
		}
		if err := s.subRepo.Upsert(r.Context(), sub); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	default:
		s.log.Debug("ignoring stripe event", "type", event.Type)
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

func tierForSubscription(eventType stripe.EventType, status stripe.SubscriptionStatus) string {
	if eventType == "customer.subscription.deleted" {
		return "free"
	}
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return "premium"
	default:
		return "free"
	}
}
