package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedWorkers struct{ busy, size int }

func (w fixedWorkers) Running() int { return w.busy }
func (w fixedWorkers) Cap() int     { return w.size }

func TestHealth_Actions(t *testing.T) {
	h := NewHealthHandler(func() int { return 3 }, fixedWorkers{busy: 2, size: 64})

	rr := httptest.NewRecorder()
	h.Ping(rr, withParams(httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil), "action", "ping"))
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Ping(rr, withParams(httptest.NewRequest(http.MethodGet, "/v1/health-check/status", nil), "action", "status"))
	require.Equal(t, http.StatusOK, rr.Code)
	var env StatusEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, 3, env.StreamClients)
	assert.Equal(t, 2, env.WorkersBusy)
	assert.Equal(t, 64, env.WorkersCap)

	rr = httptest.NewRecorder()
	h.Ping(rr, withParams(httptest.NewRequest(http.MethodGet, "/v1/health-check/nope", nil), "action", "nope"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealth_StatusWithoutSources(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rr := httptest.NewRecorder()
	h.Ping(rr, withParams(httptest.NewRequest(http.MethodGet, "/v1/health-check/status", nil), "action", "status"))
	require.Equal(t, http.StatusOK, rr.Code)
	var env StatusEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Zero(t, env.WorkersCap)
}
