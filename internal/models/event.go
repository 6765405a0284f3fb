package models

import (
	"encoding/json"
	"time"
)

// EventType categorizes events emitted by the conversation-list core.
type EventType string

const (
	// List events
	EventTypeConversationsUpdated EventType = "conversations.updated"
	EventTypeScrollToIndex        EventType = "scroll.to_index"

	// Pin events
	EventTypeConversationPinned   EventType = "conversation.pinned"
	EventTypeConversationUnpinned EventType = "conversation.unpinned"
	EventTypePinsReordered        EventType = "pins.reordered"

	// Selection events
	EventTypeSelectionChanged EventType = "selection.changed"

	// Batch events
	EventTypeBatchProgress EventType = "batch.progress"
	EventTypeBatchComplete EventType = "batch.complete"

	// System events
	EventTypeError EventType = "error"
)

// Event is one entry in the closed set of observable state changes. The two
// core components talk to the presentation layer exclusively through these
// tagged events rather than per-callsite callbacks.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// ConversationID is the related conversation, when the event concerns a
	// single conversation.
	ConversationID string `json:"conversation_id,omitempty"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ScrollToIndexPayload is the payload for scroll.to_index events.
type ScrollToIndexPayload struct {
	Index int `json:"index"`
}

// PinsReorderedPayload is the payload for pins.reordered events.
type PinsReorderedPayload struct {
	OrderedGUIDs []string `json:"ordered_guids"`
	// Reverted is set when the order is a rollback to the last known good
	// order after a failed persistence call.
	Reverted bool `json:"reverted,omitempty"`
}

// SelectionChangedPayload is the payload for selection.changed events.
type SelectionChangedPayload struct {
	SelectAllMode bool `json:"select_all_mode"`
	Count         int  `json:"count"`
	Loading       bool `json:"loading,omitempty"`
}

// BatchProgressPayload is the payload for batch.progress events.
type BatchProgressPayload struct {
	Action    BatchAction `json:"action"`
	Processed int         `json:"processed"`
	Total     int         `json:"total"`
}

// BatchCompletePayload is the payload for batch.complete events.
type BatchCompletePayload struct {
	Action BatchAction `json:"action"`
	Count  int         `json:"count"`
	// Partial indicates the batch aborted before covering the full matching
	// set (e.g. a page fetch failed); Count is the processed total.
	Partial bool `json:"partial,omitempty"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}

// MarshalPayload encodes a payload struct into an event's Payload field.
func MarshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
