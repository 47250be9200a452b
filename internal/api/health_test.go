package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readiness(t *testing.T, pg, rdb Pinger) (int, ReadinessResponse) {
	t.Helper()
	h := NewHealthHandler(pg, rdb, "test", "v0")
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestReadiness(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	code, resp := readiness(t, up, up)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, resp.Dependencies)

	code, resp = readiness(t, up, down)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", resp.Status)

	code, resp = readiness(t, down, up)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error", resp.Status)

	code, resp = readiness(t, up, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, resp.Dependencies, "redis")
}
