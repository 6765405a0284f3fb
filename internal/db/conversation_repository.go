package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roostchat/roost/internal/models"
)

// Conversation repository errors.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotPinned            = errors.New("conversation is not pinned")
	ErrAlreadyPinned        = errors.New("conversation is already pinned")
)

// ConversationRepository handles conversation persistence.
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `guid, title, category, is_pinned, pin_index, is_group,
	is_favorite, is_archived, is_blocked, is_muted, unread_count,
	snoozed_until, last_activity, created_at`

// Create inserts a new conversation, assigning a GUID and timestamps when
// missing.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.GUID == "" {
		conv.GUID = uuid.New().String()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.LastActivity.IsZero() {
		conv.LastActivity = now
	}
	if err := conv.Validate(); err != nil {
		return err
	}

	var snoozed *string
	if !conv.SnoozedUntil.IsZero() {
		s := conv.SnoozedUntil.UTC().Format(time.RFC3339)
		snoozed = &s
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		conv.GUID,
		conv.Title,
		conv.Category,
		boolToInt(conv.IsPinned),
		conv.PinIndex,
		boolToInt(conv.IsGroup),
		boolToInt(conv.IsFavorite),
		boolToInt(conv.IsArchived),
		boolToInt(conv.IsBlocked),
		boolToInt(conv.IsMuted),
		conv.UnreadCount,
		snoozed,
		conv.LastActivity.UTC().Format(time.RFC3339),
		conv.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// Get retrieves a conversation by GUID.
func (r *ConversationRepository) Get(ctx context.Context, guid string) (*models.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE guid = ?
	`, guid)
	return scanConversation(row)
}

// List retrieves conversations matching the filter context, ordered by last
// activity (newest first, GUID tiebreak for stable paging).
func (r *ConversationRepository) List(ctx context.Context, fc models.FilterContext, limit, offset int) ([]*models.Conversation, error) {
	where, args := filterPredicate(fc)
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE `+where+`
		ORDER BY last_activity DESC, guid
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv, err := scanConversationFromRows(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return conversations, nil
}

// CountMatching returns the number of conversations matching the filter
// context.
func (r *ConversationRepository) CountMatching(ctx context.Context, fc models.FilterContext) (int, error) {
	where, args := filterPredicate(fc)

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversations WHERE `+where,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// FetchMatchingIDs returns one page of GUIDs matching the filter context.
// Ordering is identical to List, so pages are stable for a fixed context as
// long as the matching set does not mutate between fetches.
func (r *ConversationRepository) FetchMatchingIDs(ctx context.Context, fc models.FilterContext, limit, offset int) ([]string, error) {
	where, args := filterPredicate(fc)
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, `
		SELECT guid FROM conversations
		WHERE `+where+`
		ORDER BY last_activity DESC, guid
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matching ids: %w", err)
	}
	defer rows.Close()

	var guids []string
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, fmt.Errorf("failed to scan guid: %w", err)
		}
		guids = append(guids, guid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guids: %w", err)
	}
	return guids, nil
}

// ListPinned retrieves pinned conversations ordered by pin index. Ties break
// by recency so the order stays total even when indices collide.
func (r *ConversationRepository) ListPinned(ctx context.Context) ([]*models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE is_pinned = 1
		ORDER BY pin_index, last_activity DESC, guid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pinned conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv, err := scanConversationFromRows(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pinned conversations: %w", err)
	}
	return conversations, nil
}

// Pin marks a conversation as pinned at the end of the pinned row and returns
// its position in that row (for the scroll hint).
func (r *ConversationRepository) Pin(ctx context.Context, guid string) (int, error) {
	var position int
	err := r.db.TransactionWithRetry(ctx, func(tx *sql.Tx) error {
		var pinned bool
		err := tx.QueryRowContext(ctx, `SELECT is_pinned FROM conversations WHERE guid = ?`, guid).Scan(&pinned)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConversationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read pin state: %w", err)
		}
		if pinned {
			return ErrAlreadyPinned
		}

		var maxIndex sql.NullInt64
		var count int
		err = tx.QueryRowContext(ctx, `
			SELECT MAX(pin_index), COUNT(*) FROM conversations WHERE is_pinned = 1
		`).Scan(&maxIndex, &count)
		if err != nil {
			return fmt.Errorf("failed to read pin bounds: %w", err)
		}

		next := 0
		if maxIndex.Valid {
			next = int(maxIndex.Int64) + 1
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE conversations SET is_pinned = 1, pin_index = ? WHERE guid = ?
		`, next, guid)
		if err != nil {
			return fmt.Errorf("failed to pin conversation: %w", err)
		}
		position = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

// Unpin removes a conversation from the pinned row.
func (r *ConversationRepository) Unpin(ctx context.Context, guid string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET is_pinned = 0, pin_index = 0
		WHERE guid = ? AND is_pinned = 1
	`, guid)
	if err != nil {
		return fmt.Errorf("failed to unpin conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get unpin count: %w", err)
	}
	if affected == 0 {
		return ErrNotPinned
	}
	return nil
}

// ReorderPins rewrites pin indices to match the given order. All listed
// conversations must currently be pinned; the whole reorder is one
// transaction.
func (r *ConversationRepository) ReorderPins(ctx context.Context, orderedGUIDs []string) error {
	if len(orderedGUIDs) == 0 {
		return nil
	}
	return r.db.TransactionWithRetry(ctx, func(tx *sql.Tx) error {
		for position, guid := range orderedGUIDs {
			result, err := tx.ExecContext(ctx, `
				UPDATE conversations SET pin_index = ?
				WHERE guid = ? AND is_pinned = 1
			`, position, guid)
			if err != nil {
				return fmt.Errorf("failed to reorder pin %s: %w", guid, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get reorder count: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("%w: %s", ErrNotPinned, guid)
			}
		}
		return nil
	})
}

// MarkRead sets the unread count to zero for the given conversations.
func (r *ConversationRepository) MarkRead(ctx context.Context, guids []string) (int64, error) {
	return r.updateByGUIDs(ctx, guids, `unread_count = 0`)
}

// MarkUnread flags the given conversations as having unread messages.
func (r *ConversationRepository) MarkUnread(ctx context.Context, guids []string) (int64, error) {
	return r.updateByGUIDs(ctx, guids, `unread_count = MAX(unread_count, 1)`)
}

// Archive archives the given conversations. Archiving removes a conversation
// from the pinned row.
func (r *ConversationRepository) Archive(ctx context.Context, guids []string) (int64, error) {
	return r.updateByGUIDs(ctx, guids, `is_archived = 1, is_pinned = 0, pin_index = 0`)
}

// Unarchive restores the given conversations from the archive.
func (r *ConversationRepository) Unarchive(ctx context.Context, guids []string) (int64, error) {
	return r.updateByGUIDs(ctx, guids, `is_archived = 0`)
}

// Block blocks the given conversations.
func (r *ConversationRepository) Block(ctx context.Context, guids []string) (int64, error) {
	return r.updateByGUIDs(ctx, guids, `is_blocked = 1, is_pinned = 0, pin_index = 0`)
}

// Mute mutes notifications for the given conversations.
func (r *ConversationRepository) Mute(ctx context.Context, guids []string) (int64, error) {
	return r.updateByGUIDs(ctx, guids, `is_muted = 1`)
}

// Unmute restores notifications for the given conversations.
func (r *ConversationRepository) Unmute(ctx context.Context, guids []string) (int64, error) {
	return r.updateByGUIDs(ctx, guids, `is_muted = 0`)
}

// Snooze hides the given conversations until the given time.
func (r *ConversationRepository) Snooze(ctx context.Context, guids []string, until time.Time) (int64, error) {
	if len(guids) == 0 {
		return 0, nil
	}
	placeholders, args := guidArgs(guids)
	args = append([]any{until.UTC().Format(time.RFC3339)}, args...)

	result, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET snoozed_until = ? WHERE guid IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to snooze conversations: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes the given conversations entirely.
func (r *ConversationRepository) Delete(ctx context.Context, guids []string) (int64, error) {
	if len(guids) == 0 {
		return 0, nil
	}
	placeholders, args := guidArgs(guids)

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE guid IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversations: %w", err)
	}
	return result.RowsAffected()
}

// TouchActivity bumps a conversation's last activity timestamp.
func (r *ConversationRepository) TouchActivity(ctx context.Context, guid string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET last_activity = ? WHERE guid = ?
	`, at.UTC().Format(time.RFC3339), guid)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get touch count: %w", err)
	}
	if affected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) updateByGUIDs(ctx context.Context, guids []string, set string) (int64, error) {
	if len(guids) == 0 {
		return 0, nil
	}
	placeholders, args := guidArgs(guids)

	result, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET `+set+` WHERE guid IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update conversations: %w", err)
	}
	return result.RowsAffected()
}

func guidArgs(guids []string) (string, []any) {
	placeholders := make([]string, len(guids))
	args := make([]any, len(guids))
	for i, guid := range guids {
		placeholders[i] = "?"
		args[i] = guid
	}
	return strings.Join(placeholders, ","), args
}

// filterPredicate builds the WHERE clause for a filter context. Archived and
// blocked conversations are hidden from every filter except "archived".
func filterPredicate(fc models.FilterContext) (string, []any) {
	var clauses []string
	var args []any

	switch fc.Filter {
	case models.FilterArchived:
		clauses = append(clauses, "is_archived = 1")
	case models.FilterUnread:
		clauses = append(clauses, "is_archived = 0", "is_blocked = 0", "unread_count > 0")
	case models.FilterFavorites:
		clauses = append(clauses, "is_archived = 0", "is_blocked = 0", "is_favorite = 1")
	case models.FilterGroups:
		clauses = append(clauses, "is_archived = 0", "is_blocked = 0", "is_group = 1")
	default:
		clauses = append(clauses, "is_archived = 0", "is_blocked = 0")
	}

	if fc.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, fc.Category)
	}

	return strings.Join(clauses, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanConversation(row *sql.Row) (*models.Conversation, error) {
	var conv models.Conversation
	var snoozed sql.NullString
	var lastActivity, createdAt string
	var pinned, group, favorite, archived, blocked, muted int

	err := row.Scan(
		&conv.GUID,
		&conv.Title,
		&conv.Category,
		&pinned,
		&conv.PinIndex,
		&group,
		&favorite,
		&archived,
		&blocked,
		&muted,
		&conv.UnreadCount,
		&snoozed,
		&lastActivity,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	fillConversation(&conv, pinned, group, favorite, archived, blocked, muted, snoozed, lastActivity, createdAt)
	return &conv, nil
}

func scanConversationFromRows(rows *sql.Rows) (*models.Conversation, error) {
	var conv models.Conversation
	var snoozed sql.NullString
	var lastActivity, createdAt string
	var pinned, group, favorite, archived, blocked, muted int

	if err := rows.Scan(
		&conv.GUID,
		&conv.Title,
		&conv.Category,
		&pinned,
		&conv.PinIndex,
		&group,
		&favorite,
		&archived,
		&blocked,
		&muted,
		&conv.UnreadCount,
		&snoozed,
		&lastActivity,
		&createdAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	fillConversation(&conv, pinned, group, favorite, archived, blocked, muted, snoozed, lastActivity, createdAt)
	return &conv, nil
}

func fillConversation(conv *models.Conversation, pinned, group, favorite, archived, blocked, muted int, snoozed sql.NullString, lastActivity, createdAt string) {
	conv.IsPinned = pinned != 0
	conv.IsGroup = group != 0
	conv.IsFavorite = favorite != 0
	conv.IsArchived = archived != 0
	conv.IsBlocked = blocked != 0
	conv.IsMuted = muted != 0

	if snoozed.Valid {
		if t, err := time.Parse(time.RFC3339, snoozed.String); err == nil {
			conv.SnoozedUntil = t
		}
	}
	if t, err := time.Parse(time.RFC3339, lastActivity); err == nil {
		conv.LastActivity = t
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		conv.CreatedAt = t
	}
}
