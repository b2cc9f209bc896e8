package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkOK(ctx context.Context) error   { return nil }
func checkFail(ctx context.Context) error { return errors.New("connection refused") }

func TestHealthChecker_Check(t *testing.T) {
	tests := []struct {
		name     string
		required CheckFunc
		optional CheckFunc
		want     string
	}{
		{"all healthy", checkOK, checkOK, StatusHealthy},
		{"optional down", checkOK, checkFail, StatusDegraded},
		{"required down", checkFail, checkOK, StatusUnhealthy},
		{"both down", checkFail, checkFail, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("v1.2.3")
			h.AddCheck("session_backend", true, tt.required)
			h.AddCheck("redis", false, tt.optional)

			status := h.Check(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, "v1.2.3", status.Version)
			assert.Equal(t, []string{"redis", "session_backend"}, status.SortedDependencies())
			assert.True(t, status.Dependencies["session_backend"].Required)
		})
	}
}

func TestHealthChecker_ServeHTTP(t *testing.T) {
	h := NewHealthChecker("")
	h.AddCheck("session_backend", true, checkFail)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, "connection refused", status.Dependencies["session_backend"].Message)
}

func TestRedisCheck(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	assert.NoError(t, RedisCheck(client)(context.Background()))

	mr.Close()
	assert.Error(t, RedisCheck(client)(context.Background()))
}

func TestHTTPCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.NoError(t, HTTPCheck(server.Client(), server.URL)(context.Background()))
	assert.Error(t, HTTPCheck(server.Client(), server.URL+"/broken")(context.Background()))
	assert.Error(t, HTTPCheck(nil, "://bad")(context.Background()))
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(ErrorLevel, &buf)

	assert.NotPanics(t, func() {
		defer RecoverPanic(logger, "test")
		panic("kaboom")
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "PANIC recovered", entry["msg"])
	assert.Equal(t, "kaboom", entry["panic"])
	assert.Equal(t, "test", entry["where"])
}
