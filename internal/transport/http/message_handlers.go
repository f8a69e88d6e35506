package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/store"
)

// MessageHandlers provides HTTP handlers for the messaging pull surface:
// contact listing and conversation history. The push side lives on the socket.
type MessageHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// ContactResponse represents a user available as a chat contact.
type ContactResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// HistoryMessage represents one message of a conversation history.
type HistoryMessage struct {
	From      int64  `json:"from"`
	To        int64  `json:"to"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// ListUsers returns all users except the caller.
// GET /api/users
func (h *MessageHandlers) ListUsers(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := h.store.ListUsersExcept(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ContactResponse, 0, len(users))
	for _, u := range users {
		response = append(response, ContactResponse{ID: u.ID, Username: u.Username})
	}

	c.JSON(http.StatusOK, response)
}

// History returns the conversation between the caller and another user,
// oldest first. Clients reconcile live socket pushes against this endpoint,
// so it includes messages whose live delivery was dropped.
// GET /api/messages/:userID
func (h *MessageHandlers) History(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	peerID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	messages, err := h.store.ListConversation(c.Request.Context(), uid, peerID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("peer_id", peerID).Msg("failed to fetch conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]HistoryMessage, 0, len(messages))
	for _, msg := range messages {
		response = append(response, HistoryMessage{
			From:      msg.SenderID,
			To:        msg.ReceiverID,
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
