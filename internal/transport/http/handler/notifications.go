package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parishpush/internal/application/notification"
	"github.com/parishpush/internal/application/receipt"
	"github.com/parishpush/internal/domain"
	"github.com/parishpush/internal/pkg/logger"
	"github.com/parishpush/internal/pkg/validate"
	"github.com/parishpush/internal/transport/http/middleware"
)

type streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, parishID string, originPatterns []string)
}

// NotificationHandler serves the follower feed and the parish content endpoints.
type NotificationHandler struct {
	svc      notification.Service
	receipts receipt.Service
	stream   streamer
	origins  []string
	log      *logger.Logger
}

func NewNotificationHandler(svc notification.Service, receipts receipt.Service, stream streamer, origins []string, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, receipts: receipts, stream: stream, origins: origins, log: log}
}

// List returns the caller's feed with read flags.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	items, err := h.svc.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationListEnvelope{Data: items, HasUnread: receipt.HasUnread(items)})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.receipts.MarkRead(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "marked as read"})
}

// MarkAllRead attempts every id and reports the ones that could not be written.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.MarkAllReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	failed, err := h.receipts.MarkAllRead(r.Context(), claims.UserID, req.IDs)
	if err != nil {
		h.log.Warn(r.Context(), "mark all read: partial failure", err)
	}
	if failed == nil {
		failed = []string{}
	}
	writeJSON(w, http.StatusOK, MarkAllReadEnvelope{Failed: failed})
}

// Stream upgrades to a websocket carrying events for the caller's parish.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	parishID, err := h.svc.ParishOf(r.Context(), claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not following any parish")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	h.stream.Serve(w, r, parishID, h.origins)
}

// ListParish returns the parish's own records, newest first.
func (h *NotificationHandler) ListParish(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListByParish(r.Context(), chi.URLParam(r, "parishId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ParishNotificationsEnvelope{Data: items})
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.NotificationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.svc.Create(r.Context(), chi.URLParam(r, "parishId"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.NotificationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.svc.Update(r.Context(), chi.URLParam(r, "parishId"), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "parishId"), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}
