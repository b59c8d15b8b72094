package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishpush/internal/config"
	"github.com/parishpush/internal/domain"
	jwtinfra "github.com/parishpush/internal/infrastructure/jwt"
	"github.com/parishpush/internal/pkg/logger"
	"github.com/parishpush/internal/pkg/worker"
	"github.com/parishpush/internal/transport/http/handler"
)

// store is an in-memory backing for every repository the router needs.
// reads counts every lookup so precondition tests can assert none happened.
type store struct {
	mu        sync.Mutex
	reads     atomic.Int64
	followers map[string][]string // parish -> users
	prefs     map[string]domain.NotificationPreferences
	subs      map[string][]domain.PushSubscription
	owners    map[string]string
	records   map[string]domain.NotificationRecord
}

func newStore() *store {
	return &store{
		followers: map[string][]string{},
		prefs:     map[string]domain.NotificationPreferences{},
		subs:      map[string][]domain.PushSubscription{},
		owners:    map[string]string{},
		records:   map[string]domain.NotificationRecord{},
	}
}

// notifications
func (s *store) Put(_ context.Context, n *domain.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[n.ID] = *n
	return nil
}
func (s *store) Get(_ context.Context, parishID, id string) (*domain.NotificationRecord, error) {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[id]
	if !ok || n.ParishID != parishID {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}
func (s *store) ListByParish(_ context.Context, parishID string) ([]domain.NotificationRecord, error) {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.NotificationRecord{}
	for _, n := range s.records {
		if n.ParishID == parishID {
			out = append(out, n)
		}
	}
	return out, nil
}
func (s *store) UpdateContent(_ context.Context, parishID, id string, in domain.NotificationInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[id]
	if !ok || n.ParishID != parishID {
		return domain.ErrNotFound
	}
	n.Title, n.Message, n.Type, n.ImageURL = in.Title, in.Message, in.Type, in.ImageURL
	s.records[id] = n
	return nil
}
func (s *store) Delete(_ context.Context, _, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

type prefRepo struct{ *store }

func (p prefRepo) Get(_ context.Context, userID string) (*domain.NotificationPreferences, error) {
	p.reads.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.prefs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}
func (p prefRepo) Put(_ context.Context, userID string, prefs domain.NotificationPreferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs[userID] = prefs
	return nil
}

type subRepo struct{ *store }

func (r subRepo) Put(_ context.Context, sub *domain.PushSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.UserID] = append(r.subs[sub.UserID], *sub)
	return nil
}
func (r subRepo) Delete(_ context.Context, userID, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.subs[userID][:0]
	for _, s := range r.subs[userID] {
		if s.Endpoint != endpoint {
			kept = append(kept, s)
		}
	}
	r.subs[userID] = kept
	return nil
}
func (r subRepo) ListByUser(_ context.Context, userID string) ([]domain.PushSubscription, error) {
	r.reads.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PushSubscription{}, r.subs[userID]...), nil
}

type receiptRepo struct{ *store }

func (receiptRepo) MarkRead(context.Context, string, string) error { return nil }
func (r receiptRepo) ReadIDs(context.Context, string) (map[string]bool, error) {
	r.reads.Add(1)
	return map[string]bool{}, nil
}

type followerRepo struct{ *store }

func (f followerRepo) ParishOf(_ context.Context, userID string) (string, error) {
	f.reads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	for parish, users := range f.followers {
		for _, u := range users {
			if u == userID {
				return parish, nil
			}
		}
	}
	return "", domain.ErrNotFound
}
func (f followerRepo) ListUserIDs(_ context.Context, parishID string) ([]string, error) {
	f.reads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.followers[parishID]...), nil
}

type ownerRepo struct{ *store }

func (o ownerRepo) OwnerOf(_ context.Context, parishID string) (string, error) {
	o.reads.Add(1)
	owner, ok := o.owners[parishID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

type recordingPusher struct {
	mu        sync.Mutex
	endpoints []string
}

func (p *recordingPusher) Send(_ context.Context, sub domain.PushSubscription, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endpoints = append(p.endpoints, sub.Endpoint)
	return nil
}
func (p *recordingPusher) PublicKey() string { return "BTestPublicKey" }

type fixture struct {
	store  *store
	pusher *recordingPusher
	jwt    *jwtinfra.Provider
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	jwt := jwtinfra.NewProviderFromKeys(key, &key.PublicKey, time.Hour)

	pool, err := worker.New("test", 4, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { pool.Shutdown(time.Second) })

	cfg := &config.Config{
		APISecretKey:   "s3cret",
		AllowedOrigins: []string{"*"},
		DefaultIcon:    "/icon.png",
		DefaultBadge:   "/badge.png",
		Broadcast: config.Broadcast{
			Workers:       4,
			MaxInFlight:   8,
			DeviceTimeout: time.Second,
			Deadline:      5 * time.Second,
		},
	}
	s := newStore()
	pusher := &recordingPusher{}
	deps := &Deps{
		NotificationRepo: s,
		PreferenceRepo:   prefRepo{s},
		SubscriptionRepo: subRepo{s},
		ReceiptRepo:      receiptRepo{s},
		FollowerRepo:     followerRepo{s},
		OwnerRepo:        ownerRepo{s},
		Pusher:           pusher,
		JWTProvider:      jwt,
		Pool:             pool,
		Log:              logger.Nop(),
	}
	return &fixture{store: s, pusher: pusher, jwt: jwt, router: NewRouter(cfg, deps)}
}

func (f *fixture) do(method, target, auth string, body []byte) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	if auth != "" {
		r.Header.Set("Authorization", "Bearer "+auth)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, r)
	return rr
}

func enabled() domain.NotificationPreferences {
	p := domain.DefaultPreferences()
	p.PushEnabled = true
	return p
}

func TestSend_Unauthorized_NoReads(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"parishId":"P1","title":"Missa","body":"Domingo 10h"}`)

	for _, auth := range []string{"", "wrong"} {
		rr := f.do(http.MethodPost, "/notifications/send", auth, body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rr.Body.String())
	}
	assert.Zero(t, f.store.reads.Load())
}

func TestSend_MissingTitle_NoReads(t *testing.T) {
	f := newFixture(t)
	rr := f.do(http.MethodPost, "/notifications/send", "s3cret", []byte(`{"parishId":"P1","body":"Domingo 10h"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, rr.Body.String())
	assert.Zero(t, f.store.reads.Load())
}

func TestSend_ScenarioA(t *testing.T) {
	f := newFixture(t)
	f.store.followers["P1"] = []string{"u1", "u2", "u3"}
	f.store.prefs["u1"] = domain.DefaultPreferences() // push disabled
	f.store.prefs["u2"] = enabled()
	f.store.prefs["u3"] = enabled()
	f.store.subs["u1"] = []domain.PushSubscription{{UserID: "u1", Endpoint: "https://push/u1"}}
	f.store.subs["u2"] = []domain.PushSubscription{{UserID: "u2", Endpoint: "https://push/u2"}}
	f.store.subs["u3"] = []domain.PushSubscription{{UserID: "u3", Endpoint: "https://push/u3a"}, {UserID: "u3", Endpoint: "https://push/u3b"}}

	for _, path := range []string{"/notifications/send", "/v1/notifications/send"} {
		f.pusher.endpoints = nil
		rr := f.do(http.MethodPost, path, "s3cret", []byte(`{"parishId":"P1","title":"Missa","body":"Domingo 10h"}`))
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.JSONEq(t, `{"success":true,"sent":3,"failed":0,"total":3}`, rr.Body.String())
		assert.ElementsMatch(t, []string{"https://push/u2", "https://push/u3a", "https://push/u3b"}, f.pusher.endpoints)
	}
}

func TestParishRoutes_RequireOwner(t *testing.T) {
	f := newFixture(t)
	f.store.owners["P1"] = "acct-1"
	body := []byte(`{"title":"Missa","message":"Domingo 10h","type":"event"}`)

	owner, err := f.jwt.Sign("acct-1", domain.RoleParish, "P1")
	require.NoError(t, err)
	rr := f.do(http.MethodPost, "/v1/parishes/P1/notifications", owner, body)
	require.Equal(t, http.StatusCreated, rr.Code)

	var rec domain.NotificationRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&rec))
	assert.Equal(t, "P1", rec.ParishID)
	assert.NotEmpty(t, rec.ID)

	other, err := f.jwt.Sign("acct-2", domain.RoleParish, "P2")
	require.NoError(t, err)
	rr = f.do(http.MethodPost, "/v1/parishes/P1/notifications", other, body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	follower, err := f.jwt.Sign("u1", domain.RoleFollower, "")
	require.NoError(t, err)
	rr = f.do(http.MethodGet, "/v1/parishes/P1/notifications", follower, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestFollowerFeed(t *testing.T) {
	f := newFixture(t)
	f.store.followers["P1"] = []string{"u1"}
	f.store.records["n1"] = domain.NotificationRecord{ID: "n1", ParishID: "P1", Title: "Missa", Type: domain.TypeEvent, Timestamp: time.Now()}

	tok, err := f.jwt.Sign("u1", domain.RoleFollower, "")
	require.NoError(t, err)
	rr := f.do(http.MethodGet, "/v1/notifications", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data      []domain.UserNotification `json:"data"`
		HasUnread bool                      `json:"hasUnread"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.HasUnread)
}

func TestVAPIDPublicKeyRoute(t *testing.T) {
	f := newFixture(t)
	rr := f.do(http.MethodGet, "/v1/push/vapid-public-key", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"publicKey":"BTestPublicKey"}`, rr.Body.String())
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	rr := f.do(http.MethodGet, "/v1/health-check/ping", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}

func TestHealthStatusReportsWorkerPool(t *testing.T) {
	f := newFixture(t)
	rr := f.do(http.MethodGet, "/v1/health-check/status", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var env handler.StatusEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, 4, env.WorkersCap)
}
