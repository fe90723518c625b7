package repository

import (
	"context"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append inserts a message and returns it with the store-assigned id and
// timestamp. Ordering is (created_at, id): created_at comes from the
// database clock and the bigserial id is the strictly increasing tie-break,
// so two appends with colliding timestamps still have a total order.
func (r *MessageRepository) Append(
	ctx context.Context,
	senderID int64,
	receiverID int64,
	content string,
) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content, is_read)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, sender_id, receiver_id, content, is_read, created_at
	`

	var message models.Message
	err := r.db.QueryRow(ctx, query, senderID, receiverID, content).Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Content,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// ListByConversation returns one ascending page of the conversation between
// userA and userB, direction-agnostic, plus the total message count.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	userA int64,
	userB int64,
	limit int,
	offset int,
) ([]models.Message, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
	`

	var total int
	if err := r.db.QueryRow(ctx, totalQuery, userA, userB).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, sender_id, receiver_id, content, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, userA, userB, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// ListForParticipant returns every message the user sent or received,
// ascending. This is the flat scan the conversation indexer groups; the
// (sender_id, created_at) and (receiver_id, created_at) indexes cover both
// halves of the OR.
func (r *MessageRepository) ListForParticipant(
	ctx context.Context,
	userID int64,
) ([]models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, is_read, created_at
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkConversationRead flips is_read on every unread message the counterpart
// sent to the receiver and reports how many rows transitioned. Matching only
// unread rows makes the call idempotent: a repeat returns 0.
func (r *MessageRepository) MarkConversationRead(
	ctx context.Context,
	receiverID int64,
	senderID int64,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE receiver_id = $1
		  AND sender_id = $2
		  AND is_read = FALSE
	`, receiverID, senderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountForParticipant is used by the cascade-delete path to confirm no
// message referencing the user survived.
func (r *MessageRepository) CountForParticipant(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
	`, userID).Scan(&count)
	return count, err
}
