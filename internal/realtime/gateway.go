package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/proto"
	"github.com/tahakaan/superapp-server/internal/store"
)

var (
	// ErrAuthRequired is returned when a connection presents no valid token.
	ErrAuthRequired = errors.New("authentication required")
)

// Verifier authenticates bearer tokens. It must be safe for concurrent use:
// the gateway calls it once per connection and once per frame.
type Verifier interface {
	VerifyToken(token string) (int64, error)
}

// Gateway owns the connection registry and implements the direct-message
// protocol: authenticate the sender of every frame, push to the recipient's
// live session when one exists, and persist the message regardless.
type Gateway struct {
	registry *Registry
	verifier Verifier
	messages store.MessageStore
	log      *zerolog.Logger
}

// NewGateway constructs a gateway with an empty registry.
func NewGateway(verifier Verifier, messages store.MessageStore, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		registry: NewRegistry(),
		verifier: verifier,
		messages: messages,
		log:      logger,
	}
}

// Registry exposes the connection registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Connect authenticates the token presented at connection establishment and
// registers a session for the resulting user. A failed handshake yields an
// error and no session: anonymous sockets are rejected rather than kept open.
func (g *Gateway) Connect(token string) (*Session, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	userID, err := g.verifier.VerifyToken(token)
	if err != nil {
		return nil, fmt.Errorf("verify connection token: %w", err)
	}

	sess := NewSession(userID)
	g.registry.Put(userID, sess)
	g.log.Info().Int64("user_id", userID).Msg("realtime session opened")

	return sess, nil
}

// Disconnect closes the session and releases its registry entry. Safe to call
// exactly once per connection; the release is a no-op when a reconnect has
// already replaced the entry.
func (g *Gateway) Disconnect(sess *Session) {
	sess.Close()
	g.registry.Release(sess.UserID, sess)
	g.log.Info().Int64("user_id", sess.UserID).Msg("realtime session closed")
}

// HandleFrame processes one inbound frame. Failures never close the
// connection and are never surfaced to the sender: a malformed frame or a
// rejected token is logged and dropped, and a recipient without a live
// session simply gets no push. The message is persisted in every case that
// passes authentication, so history remains the source of truth.
func (g *Gateway) HandleFrame(ctx context.Context, raw []byte) {
	var frame proto.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		g.log.Warn().Err(err).Msg("malformed frame dropped")
		return
	}
	// The frame token, not the connection identity, names the sender of record.
	senderID, err := g.verifier.VerifyToken(frame.Token)
	if err != nil {
		g.log.Warn().Err(err).Int64("to", frame.To).Msg("frame auth rejected")
		return
	}
	if frame.To == 0 {
		g.log.Warn().Int64("from", senderID).Msg("frame without recipient dropped")
		return
	}

	createdAt := frame.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	if sess, ok := g.registry.Get(frame.To); ok {
		delivered := sess.Deliver(proto.Delivery{
			From:      senderID,
			Text:      frame.Text,
			CreatedAt: createdAt,
		})
		if delivered {
			g.log.Debug().Int64("from", senderID).Int64("to", frame.To).Msg("message pushed")
		} else {
			g.log.Debug().Int64("from", senderID).Int64("to", frame.To).Msg("recipient unreachable")
		}
	} else {
		g.log.Debug().Int64("from", senderID).Int64("to", frame.To).Msg("recipient offline")
	}

	if _, err := g.messages.SaveMessage(ctx, senderID, frame.To, frame.Text); err != nil {
		g.log.Error().Err(err).Int64("from", senderID).Int64("to", frame.To).Msg("persist message failed")
	}
}
