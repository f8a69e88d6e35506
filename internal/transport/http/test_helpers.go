package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/auth"
	"github.com/tahakaan/superapp-server/internal/config"
	"github.com/tahakaan/superapp-server/internal/realtime"
	"github.com/tahakaan/superapp-server/internal/store"
	"github.com/tahakaan/superapp-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with the schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// testEnv bundles everything a transport test needs.
type testEnv struct {
	ts      *httptest.Server
	store   store.Store
	auth    *auth.Service
	gateway *realtime.Gateway
}

// startTestServer boots the full HTTP surface against an in-memory store.
func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st := createTestStore(t)
	authService := createTestAuthService(t, st)
	logger := zerolog.Nop()

	gateway := realtime.NewGateway(authService, st, &logger)
	server := NewServer(gateway, authService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService, gateway: gateway}
}

// registerUser registers a user over the API and returns its token and id.
func registerUser(t *testing.T, env *testEnv, username, password string) (string, int64) {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Username: username, Password: password})
	resp, err := env.ts.Client().Post(env.ts.URL+"/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	return authResp.Token, authResp.ID
}
