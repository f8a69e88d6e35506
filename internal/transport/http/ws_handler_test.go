package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/tahakaan/superapp-server/internal/proto"
)

func wsURL(env *testEnv, token string) string {
	u := strings.Replace(env.ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialWS(t *testing.T, ctx context.Context, env *testEnv, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL(env, token), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// waitForRegistryLen polls until the gateway registry reaches n sessions.
func waitForRegistryLen(t *testing.T, env *testEnv, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if env.gateway.Registry().Len() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("registry never reached %d sessions (have %d)", n, env.gateway.Registry().Len())
}

func TestWSRejectsMissingToken(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(env, ""), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The server closes unauthenticated sockets right after the upgrade.
	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected connection to be closed")
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v (%v)", status, err)
	}
	if env.gateway.Registry().Len() != 0 {
		t.Fatal("no session should be registered")
	}
}

func TestWSDirectMessageEndToEnd(t *testing.T) {
	env := startTestServer(t)

	tokenAlice, idAlice := registerUser(t, env, "alice", "password123")
	tokenBob, idBob := registerUser(t, env, "bobby", "password123")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connAlice := dialWS(t, ctx, env, tokenAlice)
	waitForRegistryLen(t, env, 1)
	connBob := dialWS(t, ctx, env, tokenBob)
	waitForRegistryLen(t, env, 2)

	// Alice sends to Bob while he is online.
	err := wsjson.Write(ctx, connAlice, proto.Frame{Token: tokenAlice, To: idBob, Text: "hi"})
	if err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var delivery proto.Delivery
	if err := wsjson.Read(ctx, connBob, &delivery); err != nil {
		t.Fatalf("read delivery: %v", err)
	}
	if delivery.From != idAlice || delivery.Text != "hi" {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
	if delivery.CreatedAt == "" {
		t.Fatal("delivery missing created_at")
	}

	// Bob disconnects; his registry entry must go away.
	connBob.Close(websocket.StatusNormalClosure, "bye")
	waitForRegistryLen(t, env, 1)

	// Alice sends again; no live push, but the record still lands in history.
	err = wsjson.Write(ctx, connAlice, proto.Frame{Token: tokenAlice, To: idBob, Text: "bye"})
	if err != nil {
		t.Fatalf("write frame: %v", err)
	}

	history := fetchHistory(t, ctx, env, tokenAlice, idBob, 2)
	if history[0].Text != "hi" || history[1].Text != "bye" {
		t.Fatalf("unexpected history order: %+v", history)
	}
	for _, msg := range history {
		if msg.From != idAlice || msg.To != idBob {
			t.Fatalf("unexpected history attribution: %+v", msg)
		}
	}
}

func TestWSMalformedFrameKeepsConnectionUsable(t *testing.T) {
	env := startTestServer(t)

	tokenAlice, idAlice := registerUser(t, env, "alice", "password123")
	tokenBob, idBob := registerUser(t, env, "bobby", "password123")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connAlice := dialWS(t, ctx, env, tokenAlice)
	connBob := dialWS(t, ctx, env, tokenBob)
	waitForRegistryLen(t, env, 2)

	// Garbage first; the connection must survive it.
	if err := connAlice.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	if err := wsjson.Write(ctx, connAlice, proto.Frame{Token: tokenAlice, To: idBob, Text: "still alive"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var delivery proto.Delivery
	if err := wsjson.Read(ctx, connBob, &delivery); err != nil {
		t.Fatalf("read delivery: %v", err)
	}
	if delivery.From != idAlice || delivery.Text != "still alive" {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
}

func TestWSFrameAuthRejectedSilently(t *testing.T) {
	env := startTestServer(t)

	tokenAlice, _ := registerUser(t, env, "alice", "password123")
	tokenBob, idBob := registerUser(t, env, "bobby", "password123")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connAlice := dialWS(t, ctx, env, tokenAlice)
	connBob := dialWS(t, ctx, env, tokenBob)
	waitForRegistryLen(t, env, 2)

	// Invalid frame token: dropped without feedback, nothing persisted.
	if err := wsjson.Write(ctx, connAlice, proto.Frame{Token: "forged", To: idBob, Text: "nope"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	// Valid frame arrives afterwards, proving the rejected one left no trace.
	if err := wsjson.Write(ctx, connAlice, proto.Frame{Token: tokenAlice, To: idBob, Text: "real"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var delivery proto.Delivery
	if err := wsjson.Read(ctx, connBob, &delivery); err != nil {
		t.Fatalf("read delivery: %v", err)
	}
	if delivery.Text != "real" {
		t.Fatalf("rejected frame leaked through: %+v", delivery)
	}

	history := fetchHistory(t, ctx, env, tokenAlice, idBob, 1)
	if history[0].Text != "real" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

// fetchHistory polls the history endpoint until it holds want messages.
func fetchHistory(t *testing.T, ctx context.Context, env *testEnv, token string, peerID int64, want int) []HistoryMessage {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var history []HistoryMessage
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			env.ts.URL+"/api/messages/"+strconv.FormatInt(peerID, 10), nil)
		if err != nil {
			t.Fatalf("build history request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := env.ts.Client().Do(req)
		if err != nil {
			t.Fatalf("history request failed: %v", err)
		}
		history = history[:0]
		if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
			resp.Body.Close()
			t.Fatalf("decode history: %v", err)
		}
		resp.Body.Close()

		if len(history) >= want {
			return history
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("history never reached %d messages (have %d)", want, len(history))
	return nil
}
