package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parishpush/internal/application/delivery"
	"github.com/parishpush/internal/domain"
	"github.com/parishpush/internal/pkg/logger"
)

// BroadcastHandler serves POST /notifications/send. The shared-secret check
// runs in middleware before this handler.
type BroadcastHandler struct {
	svc delivery.Broadcaster
	log *logger.Logger
}

func NewBroadcastHandler(svc delivery.Broadcaster, log *logger.Logger) *BroadcastHandler {
	return &BroadcastHandler{svc: svc, log: log}
}

func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	report, err := h.svc.Broadcast(r.Context(), req)
	switch {
	case errors.Is(err, delivery.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	case errors.Is(err, delivery.ErrInvalidType):
		writeError(w, http.StatusBadRequest, "Invalid notification type")
		return
	case err != nil:
		h.log.Error(r.Context(), "broadcast failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to send notifications")
		return
	}
	writeJSON(w, http.StatusOK, BroadcastEnvelope{
		Success: true,
		Sent:    report.Sent,
		Failed:  report.Failed,
		Total:   report.Total,
	})
}
