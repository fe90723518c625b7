package services

import "context"

type conversationReadMarker interface {
	MarkConversationRead(ctx context.Context, receiverID int64, senderID int64) (int64, error)
}

// ReadStateTracker owns the one mutable bit on a message. The state machine
// is unread → read, one direction, no inverse; marking an already-read
// conversation is a no-op that reports zero transitions. Authorization falls
// out of the query shape: the viewer id is always bound to the receiver
// column, so a caller can only ever mark their own inbox.
type ReadStateTracker struct {
	messages conversationReadMarker
}

func NewReadStateTracker(messages conversationReadMarker) *ReadStateTracker {
	return &ReadStateTracker{messages: messages}
}

func (t *ReadStateTracker) MarkConversationRead(
	ctx context.Context,
	viewerID int64,
	counterpartID int64,
) (int64, error) {
	if viewerID <= 0 || counterpartID <= 0 || viewerID == counterpartID {
		return 0, ErrInvalidInput
	}
	return t.messages.MarkConversationRead(ctx, viewerID, counterpartID)
}
