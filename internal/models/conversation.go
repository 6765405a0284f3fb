// Package models defines the core data types for Roost.
package models

import (
	"time"
)

// Conversation represents one entry in the conversation list.
type Conversation struct {
	// GUID is the unique identifier for the conversation.
	GUID string `json:"guid"`

	// Title is the display name of the conversation.
	Title string `json:"title"`

	// Category groups conversations (e.g. "work", "family"). Empty means
	// uncategorized.
	Category string `json:"category,omitempty"`

	// IsPinned indicates the conversation is in the pinned row.
	IsPinned bool `json:"is_pinned"`

	// PinIndex is the ordering key within the pinned row. Lower sorts
	// earlier. Only meaningful when IsPinned is true.
	PinIndex int `json:"pin_index"`

	// IsGroup indicates a group conversation.
	IsGroup bool `json:"is_group"`

	// IsFavorite indicates the conversation is marked as a favorite.
	IsFavorite bool `json:"is_favorite"`

	// IsArchived indicates the conversation is archived.
	IsArchived bool `json:"is_archived"`

	// IsBlocked indicates the remote party is blocked.
	IsBlocked bool `json:"is_blocked"`

	// IsMuted indicates notifications are muted.
	IsMuted bool `json:"is_muted"`

	// UnreadCount is the number of unread messages.
	UnreadCount int `json:"unread_count"`

	// SnoozedUntil hides the conversation until this time. Zero means not
	// snoozed.
	SnoozedUntil time.Time `json:"snoozed_until,omitempty"`

	// LastActivity is the timestamp of the most recent message.
	LastActivity time.Time `json:"last_activity"`

	// CreatedAt is when the conversation was first seen.
	CreatedAt time.Time `json:"created_at"`
}

// IsUnread reports whether the conversation has unread messages.
func (c *Conversation) IsUnread() bool {
	return c.UnreadCount > 0
}

// IsSnoozed reports whether the conversation is snoozed relative to now.
func (c *Conversation) IsSnoozed(now time.Time) bool {
	return !c.SnoozedUntil.IsZero() && c.SnoozedUntil.After(now)
}

// Validate checks that required fields are present.
func (c *Conversation) Validate() error {
	var errs ValidationErrors
	if c.GUID == "" {
		errs.AddMessage("guid", "guid is required")
	}
	if c.Title == "" {
		errs.AddMessage("title", "title is required")
	}
	if c.UnreadCount < 0 {
		errs.AddMessage("unread_count", "unread count cannot be negative")
	}
	return errs.Err()
}
