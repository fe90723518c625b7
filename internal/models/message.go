package models

import "time"

type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Before reports whether m precedes other in conversation order.
// Timestamp first, id as tie-break so equal timestamps never produce
// an ambiguous ordering.
func (m *Message) Before(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// ConversationSummary is the derived per-counterpart view: the most recent
// message either direction plus how many of the counterpart's messages the
// viewer has not read yet. It is computed on demand, never stored.
type ConversationSummary struct {
	CounterpartID     int64    `json:"counterpart_id"`
	CounterpartName   string   `json:"counterpart_name,omitempty"`
	CounterpartAvatar string   `json:"counterpart_avatar,omitempty"`
	LastMessage       *Message `json:"last_message,omitempty"`
	UnreadCount       int      `json:"unread_count"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
