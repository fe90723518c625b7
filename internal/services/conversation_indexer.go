package services

import (
	"sort"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
)

// SummarizeConversations turns a user's flat message scan into one summary
// per counterpart. It is a pure projection over the log: the last message is
// the max by (created_at, id) either direction, the unread count only counts
// messages addressed to the viewer. Kept as a function rather than a
// maintained index so there is no second source of truth to drift from the
// message log.
func SummarizeConversations(viewerID int64, messages []models.Message) []models.ConversationSummary {
	byCounterpart := make(map[int64]*models.ConversationSummary)

	for i := range messages {
		message := messages[i]

		counterpartID := message.SenderID
		if counterpartID == viewerID {
			counterpartID = message.ReceiverID
		}

		summary, ok := byCounterpart[counterpartID]
		if !ok {
			summary = &models.ConversationSummary{CounterpartID: counterpartID}
			byCounterpart[counterpartID] = summary
		}

		if summary.LastMessage == nil || summary.LastMessage.Before(&message) {
			last := message
			summary.LastMessage = &last
		}

		if message.ReceiverID == viewerID && !message.IsRead {
			summary.UnreadCount++
		}
	}

	summaries := make([]models.ConversationSummary, 0, len(byCounterpart))
	for _, summary := range byCounterpart {
		summaries = append(summaries, *summary)
	}

	// Most recently active conversation first; counterpart id keeps the
	// order deterministic when activity times collide.
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.ID != b.ID {
			return a.ID > b.ID
		}
		return summaries[i].CounterpartID < summaries[j].CounterpartID
	})

	return summaries
}
