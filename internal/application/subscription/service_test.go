package subscription

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/parishpush/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mimics the keyed overwrite semantics of the subscriptions table.
type memStore struct {
	mu   sync.Mutex
	subs map[string]map[string]domain.PushSubscription
}

func newMemStore() *memStore {
	return &memStore{subs: map[string]map[string]domain.PushSubscription{}}
}

func (m *memStore) Put(_ context.Context, s *domain.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs[s.UserID] == nil {
		m.subs[s.UserID] = map[string]domain.PushSubscription{}
	}
	m.subs[s.UserID][s.Endpoint] = *s
	return nil
}

func (m *memStore) Delete(_ context.Context, userID, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs[userID], endpoint)
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]domain.PushSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PushSubscription
	for _, s := range m.subs[userID] {
		out = append(out, s)
	}
	return out, nil
}

func validRequest(t *testing.T, endpoint string) domain.SubscribeRequest {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, _ = rand.Read(auth)
	return domain.SubscribeRequest{
		Endpoint: endpoint,
		Keys: domain.PushKeys{
			P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
}

func TestAdd_SameEndpointTwiceKeepsOne(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	req := validRequest(t, "https://push.example.com/abc")

	_, err := svc.Add(context.Background(), "u1", req, "Firefox")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "u1", req, "Firefox")
	require.NoError(t, err)

	subs, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestAdd_MultipleDevices(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.Add(context.Background(), "u1", validRequest(t, "https://push.example.com/phone"), "")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "u1", validRequest(t, "https://push.example.com/laptop"), "")
	require.NoError(t, err)

	subs, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestAdd_RejectsBadKeys(t *testing.T) {
	store := newMemStore()
	req := validRequest(t, "https://push.example.com/abc")
	req.Keys.Auth = "dG9vc2hvcnQ"

	_, err := NewService(store).Add(context.Background(), "u1", req, "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Empty(t, store.subs)
}

func TestAdd_RejectsMissingEndpoint(t *testing.T) {
	_, err := NewService(newMemStore()).Add(context.Background(), "u1", domain.SubscribeRequest{}, "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	svc := NewService(newMemStore())
	assert.NoError(t, svc.Remove(context.Background(), "u1", "https://push.example.com/never"))
}

func TestListByUser_EmptyNotNil(t *testing.T) {
	subs, err := NewService(newMemStore()).ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)
}
