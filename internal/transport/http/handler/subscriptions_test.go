package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parishpush/internal/domain"
)

type mockSubscriptionSvc struct{ mock.Mock }

func (m *mockSubscriptionSvc) Add(ctx context.Context, userID string, req domain.SubscribeRequest, userAgent string) (*domain.PushSubscription, error) {
	args := m.Called(ctx, userID, req, userAgent)
	if s, _ := args.Get(0).(*domain.PushSubscription); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionSvc) Remove(ctx context.Context, userID, endpoint string) error {
	return m.Called(ctx, userID, endpoint).Error(0)
}

func (m *mockSubscriptionSvc) ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PushSubscription), args.Error(1)
}

func TestVAPIDPublicKey(t *testing.T) {
	h := NewSubscriptionHandler(&mockSubscriptionSvc{}, "BPubKey")
	rr := httptest.NewRecorder()
	h.VAPIDPublicKey(rr, httptest.NewRequest(http.MethodGet, "/v1/push/vapid-public-key", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"publicKey":"BPubKey"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewSubscriptionHandler(&mockSubscriptionSvc{}, "").VAPIDPublicKey(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSubscribe_MissingClaims(t *testing.T) {
	h := NewSubscriptionHandler(&mockSubscriptionSvc{}, "k")
	rr := httptest.NewRecorder()
	h.Subscribe(rr, httptest.NewRequest(http.MethodPost, "/v1/push/subscriptions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSubscribe_BadKeys(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSubscriptionSvc{}
	svc.On("Add", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil, domain.ErrBadRequest)
	h := NewSubscriptionHandler(svc, "k")

	body, _ := json.Marshal(domain.SubscribeRequest{Endpoint: "https://push.example.com/x", Keys: domain.PushKeys{P256dh: "short", Auth: "short"}})
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Subscribe), rr, bearerReq(t, p, http.MethodPost, "/v1/push/subscriptions", "u1", domain.RoleFollower, body))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubscribe_Created(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSubscriptionSvc{}
	req := domain.SubscribeRequest{Endpoint: "https://push.example.com/x", Keys: domain.PushKeys{P256dh: "p", Auth: "a"}}
	svc.On("Add", mock.Anything, "u1", req, mock.Anything).
		Return(&domain.PushSubscription{UserID: "u1", Endpoint: req.Endpoint, Keys: req.Keys}, nil)
	h := NewSubscriptionHandler(svc, "k")

	body, _ := json.Marshal(req)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Subscribe), rr, bearerReq(t, p, http.MethodPost, "/v1/push/subscriptions", "u1", domain.RoleFollower, body))
	require.Equal(t, http.StatusCreated, rr.Code)

	var got domain.PushSubscription
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, req.Endpoint, got.Endpoint)
	svc.AssertExpectations(t)
}

func TestUnsubscribe(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSubscriptionSvc{}
	svc.On("Remove", mock.Anything, "u1", "https://push.example.com/x").Return(nil)
	h := NewSubscriptionHandler(svc, "k")

	body := []byte(`{"endpoint":"https://push.example.com/x"}`)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Unsubscribe), rr, bearerReq(t, p, http.MethodDelete, "/v1/push/subscriptions", "u1", domain.RoleFollower, body))
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestListSubscriptions_EmptyIsArray(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSubscriptionSvc{}
	svc.On("ListByUser", mock.Anything, "u1").Return([]domain.PushSubscription{}, nil)
	h := NewSubscriptionHandler(svc, "k")

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr, bearerReq(t, p, http.MethodGet, "/v1/push/subscriptions", "u1", domain.RoleFollower, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
}
