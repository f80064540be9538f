package domain

import "time"

// HistoryRecord is one exchange in a chat session.
type HistoryRecord struct {
	// SessionID identifies the chat session.
	SessionID string

	// User is the question the user asked.
	User string

	// Bot is the answer that was returned.
	Bot string

	// Mode is the effective answer mode.
	Mode Mode

	// Timestamp is when the answer was produced.
	Timestamp time.Time
}
