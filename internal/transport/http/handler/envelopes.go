package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parishpush/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BroadcastEnvelope is the success body of POST /notifications/send.
type BroadcastEnvelope struct {
	Success bool `json:"success"`
	Sent    int  `json:"sent"`
	Failed  int  `json:"failed"`
	Total   int  `json:"total"`
}

// NotificationListEnvelope wraps a follower's notifications with the unread flag.
type NotificationListEnvelope struct {
	Data      []domain.UserNotification `json:"data"`
	HasUnread bool                      `json:"hasUnread"`
}

// ParishNotificationsEnvelope wraps a parish's own records.
type ParishNotificationsEnvelope struct {
	Data []domain.NotificationRecord `json:"data"`
}

// SubscriptionsEnvelope wraps the caller's registered devices.
type SubscriptionsEnvelope struct {
	Data []domain.PushSubscription `json:"data"`
}

// MarkAllReadEnvelope lists the ids whose receipt could not be written.
type MarkAllReadEnvelope struct {
	Failed []string `json:"failed"`
}

type VAPIDKeyEnvelope struct {
	PublicKey string `json:"publicKey"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to status codes. Anything else is a
// 500 without the underlying detail.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
