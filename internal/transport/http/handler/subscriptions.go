package handler

import (
	"encoding/json"
	"net/http"

	"github.com/parishpush/internal/application/subscription"
	"github.com/parishpush/internal/domain"
	"github.com/parishpush/internal/transport/http/middleware"
)

// SubscriptionHandler manages the caller's Web Push subscriptions.
type SubscriptionHandler struct {
	svc       subscription.Service
	publicKey string
}

func NewSubscriptionHandler(svc subscription.Service, vapidPublicKey string) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, publicKey: vapidPublicKey}
}

func (h *SubscriptionHandler) VAPIDPublicKey(w http.ResponseWriter, _ *http.Request) {
	if h.publicKey == "" {
		writeError(w, http.StatusServiceUnavailable, "push is not configured")
		return
	}
	writeJSON(w, http.StatusOK, VAPIDKeyEnvelope{PublicKey: h.publicKey})
}

func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := h.svc.Add(r.Context(), claims.UserID, req, r.UserAgent())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Remove(r.Context(), claims.UserID, req.Endpoint); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "unsubscribed"})
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	subs, err := h.svc.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubscriptionsEnvelope{Data: subs})
}
