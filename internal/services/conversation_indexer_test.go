package services

import (
	"testing"
	"time"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
)

func buildMessage(id, senderID, receiverID int64, content string, read bool, at time.Time) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     read,
		CreatedAt:  at,
	}
}

func TestSummarizeConversationsGroupsByCounterpart(t *testing.T) {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	viewer := int64(1)

	summaries := SummarizeConversations(viewer, []models.Message{
		buildMessage(1, 2, 1, "hello", false, base),
		buildMessage(2, 1, 2, "hi back", false, base.Add(time.Minute)),
		buildMessage(3, 3, 1, "gig offer", false, base.Add(2*time.Minute)),
		buildMessage(4, 2, 1, "free tonight?", false, base.Add(3*time.Minute)),
	})

	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	if summaries[0].CounterpartID != 2 {
		t.Fatalf("expected counterpart 2 first (most recent activity), got %d", summaries[0].CounterpartID)
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Content != "free tonight?" {
		t.Fatalf("expected last message 'free tonight?', got %+v", summaries[0].LastMessage)
	}
	if summaries[0].UnreadCount != 2 {
		t.Fatalf("expected 2 unread from counterpart 2, got %d", summaries[0].UnreadCount)
	}

	if summaries[1].CounterpartID != 3 {
		t.Fatalf("expected counterpart 3 second, got %d", summaries[1].CounterpartID)
	}
	if summaries[1].UnreadCount != 1 {
		t.Fatalf("expected 1 unread from counterpart 3, got %d", summaries[1].UnreadCount)
	}
}

func TestSummarizeConversationsUnreadOnlyCountsMessagesToViewer(t *testing.T) {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	viewer := int64(1)

	summaries := SummarizeConversations(viewer, []models.Message{
		buildMessage(1, 1, 2, "sent by viewer, unread by them", false, base),
		buildMessage(2, 2, 1, "already read", true, base.Add(time.Minute)),
	})

	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].UnreadCount != 0 {
		t.Fatalf("expected 0 unread, got %d", summaries[0].UnreadCount)
	}
}

func TestSummarizeConversationsTimestampCollisionUsesIDTieBreak(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	viewer := int64(1)

	summaries := SummarizeConversations(viewer, []models.Message{
		buildMessage(5, 2, 1, "older", false, at),
		buildMessage(6, 2, 1, "newer", false, at),
	})

	if summaries[0].LastMessage.Content != "newer" {
		t.Fatalf("expected higher id to win the tie, got %q", summaries[0].LastMessage.Content)
	}
}

func TestSummarizeConversationsDeterministicOrderOnEqualActivity(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	viewer := int64(1)

	messages := []models.Message{
		buildMessage(1, 4, 1, "a", false, at),
		buildMessage(2, 3, 1, "b", false, at),
	}

	first := SummarizeConversations(viewer, messages)
	for i := 0; i < 10; i++ {
		again := SummarizeConversations(viewer, messages)
		for j := range first {
			if first[j].CounterpartID != again[j].CounterpartID {
				t.Fatalf("ordering not deterministic: run %d position %d", i, j)
			}
		}
	}

	// Equal timestamps resolve by message id first, so counterpart 3
	// (holding message id 2) is the more recent conversation.
	if first[0].CounterpartID != 3 || first[1].CounterpartID != 4 {
		t.Fatalf("unexpected order: %d then %d", first[0].CounterpartID, first[1].CounterpartID)
	}
}

func TestSummarizeConversationsEmptyLog(t *testing.T) {
	summaries := SummarizeConversations(1, nil)
	if len(summaries) != 0 {
		t.Fatalf("expected no summaries, got %d", len(summaries))
	}
}
