package models

import "fmt"

// BatchAction identifies a bulk operation applied to a set of conversations
// as one logical user action. The action itself carries no state; the
// coordinator dispatches on it and the caller supplies the persistence call.
type BatchAction string

const (
	ActionMarkRead   BatchAction = "mark_read"
	ActionMarkUnread BatchAction = "mark_unread"
	ActionArchive    BatchAction = "archive"
	ActionDelete     BatchAction = "delete"
	ActionBlock      BatchAction = "block"
	ActionSnooze     BatchAction = "snooze"
)

// ValidBatchActions lists all recognized batch actions.
var ValidBatchActions = []BatchAction{
	ActionMarkRead,
	ActionMarkUnread,
	ActionArchive,
	ActionDelete,
	ActionBlock,
	ActionSnooze,
}

// ParseBatchAction converts a string to a BatchAction.
func ParseBatchAction(s string) (BatchAction, error) {
	for _, a := range ValidBatchActions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown batch action: %q", s)
}
