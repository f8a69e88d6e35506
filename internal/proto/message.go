package proto

// Frame is a direct message sent by a client over the socket.
// Every frame carries its own token; the connection identity is not trusted
// for attribution.
type Frame struct {
	Token     string `json:"token"`
	To        int64  `json:"to"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Delivery is pushed to the recipient's socket when they are online.
// The timestamp field is named created_at in both directions.
type Delivery struct {
	From      int64  `json:"from"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}
