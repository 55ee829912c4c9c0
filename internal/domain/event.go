package domain

import "time"

// MessageEvent is an inbound chat message as delivered by the chat-platform
// collaborator. Text is untrusted input; most events are ordinary chatter
// and carry no result at all.
type MessageEvent struct {
	EventID    string    `json:"event_id,omitempty"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	GuildID    string    `json:"guild_id"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

// IngestStatus classifies the outcome of processing one message event.
type IngestStatus string

const (
	StatusRecorded IngestStatus = "recorded"
	StatusIgnored  IngestStatus = "ignored"
)

// IgnoreReason explains why an event produced no durable write.
type IgnoreReason string

const (
	ReasonNotAResult IgnoreReason = "not_a_result"
	ReasonDuplicate  IgnoreReason = "duplicate"
)

// IngestOutcome is the pipeline's three-way result: recorded, ignored as a
// non-result, or ignored as a duplicate. Storage failures are reported as
// errors alongside, never folded into the outcome.
type IngestOutcome struct {
	Status IngestStatus `json:"status"`
	Reason IgnoreReason `json:"reason,omitempty"`
	Result *Result      `json:"result,omitempty"`
}
