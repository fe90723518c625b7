package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/notifier"
)

const (
	storeRetryAttempts = 3
	storeRetryBackoff  = 100 * time.Millisecond
)

// Postgres error codes the façade translates into sentinel errors.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type MessageStore interface {
	Append(ctx context.Context, senderID, receiverID int64, content string) (*models.Message, error)
	ListByConversation(ctx context.Context, userA, userB int64, limit, offset int) ([]models.Message, int, error)
	ListForParticipant(ctx context.Context, userID int64) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, receiverID, senderID int64) (int64, error)
}

type ProfileDirectory interface {
	Upsert(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id int64) (*models.Profile, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type MessageHub interface {
	Publish(message *models.Message)
	Subscribe(userID int64) *notifier.Subscription
}

// MessagingService is the façade over the message log, the read-state
// tracker and the realtime hub. All authorization decisions happen here:
// the caller id comes from the authenticated request and is only ever bound
// to its own side of a query.
type MessagingService struct {
	messages  MessageStore
	profiles  ProfileDirectory
	hub       MessageHub
	readState *ReadStateTracker
}

func NewMessagingService(
	messages MessageStore,
	profiles ProfileDirectory,
	hub MessageHub,
) *MessagingService {
	return &MessagingService{
		messages:  messages,
		profiles:  profiles,
		hub:       hub,
		readState: NewReadStateTracker(messages),
	}
}

// SendMessage validates, appends, then notifies. The notify happens strictly
// after the durable write succeeds and never blocks on slow subscribers, so
// a crash can lose a notification but never invent one.
func (s *MessagingService) SendMessage(
	ctx context.Context,
	callerID int64,
	receiverID int64,
	content string,
) (*models.Message, error) {
	if callerID <= 0 || receiverID <= 0 || callerID == receiverID {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	for _, id := range []int64{callerID, receiverID} {
		exists, err := s.profiles.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrUnknownUser
		}
	}

	var message *models.Message
	err := withRetry(ctx, func() error {
		var appendErr error
		message, appendErr = s.messages.Append(ctx, callerID, receiverID, trimmed)
		return appendErr
	})
	if err != nil {
		// The existence pre-check can race a cascade deletion; the
		// foreign key is the backstop that keeps the log orphan-free.
		return nil, mapConstraintError(err)
	}

	s.hub.Publish(message)
	return message, nil
}

// ListConversations computes the caller's summaries from the raw log and
// decorates them with counterpart display metadata. The decoration is
// best-effort: a missing profile leaves the summary undecorated rather than
// failing the call.
func (s *MessagingService) ListConversations(
	ctx context.Context,
	callerID int64,
) ([]models.ConversationSummary, error) {
	if callerID <= 0 {
		return nil, ErrInvalidInput
	}

	var flat []models.Message
	err := withRetry(ctx, func() error {
		var listErr error
		flat, listErr = s.messages.ListForParticipant(ctx, callerID)
		return listErr
	})
	if err != nil {
		return nil, err
	}

	summaries := SummarizeConversations(callerID, flat)
	for i := range summaries {
		profile, err := s.profiles.GetByID(ctx, summaries[i].CounterpartID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, err
		}
		summaries[i].CounterpartName = profile.DisplayName
		if profile.AvatarURL != nil {
			summaries[i].CounterpartAvatar = *profile.AvatarURL
		}
	}

	return summaries, nil
}

// ListMessages returns one ascending page of the conversation between the
// caller and the counterpart. Participation is enforced by construction:
// the query is keyed by the caller's own id, so messages of third parties
// are unreachable. Listing never marks anything read; that is a separate,
// explicit call.
func (s *MessagingService) ListMessages(
	ctx context.Context,
	callerID int64,
	counterpartID int64,
	page int,
	limit int,
) ([]models.Message, int, error) {
	if callerID <= 0 || counterpartID <= 0 || callerID == counterpartID {
		return nil, 0, ErrInvalidInput
	}
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	var (
		messages []models.Message
		total    int
	)
	err := withRetry(ctx, func() error {
		var listErr error
		messages, total, listErr = s.messages.ListByConversation(
			ctx, callerID, counterpartID, limit, (page-1)*limit,
		)
		return listErr
	})
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// MarkRead marks every unread message from the counterpart to the caller as
// read and returns the number of messages that transitioned. Idempotent.
func (s *MessagingService) MarkRead(
	ctx context.Context,
	callerID int64,
	counterpartID int64,
) (int64, error) {
	var count int64
	err := withRetry(ctx, func() error {
		var markErr error
		count, markErr = s.readState.MarkConversationRead(ctx, callerID, counterpartID)
		return markErr
	})
	return count, err
}

// Subscribe opens a live stream of messages addressed to the caller.
func (s *MessagingService) Subscribe(callerID int64) *notifier.Subscription {
	return s.hub.Subscribe(callerID)
}

// UpsertProfile mirrors a record pushed by the profile directory.
func (s *MessagingService) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if profile.ID <= 0 || strings.TrimSpace(profile.DisplayName) == "" {
		return ErrInvalidInput
	}
	if !models.ValidProfileRole(profile.Role) {
		return ErrInvalidInput
	}
	return withRetry(ctx, func() error {
		return s.profiles.Upsert(ctx, profile)
	})
}

// CascadeDeleteUser removes the user's profile row; the foreign keys cascade
// to every message the user sent or received in the same atomic statement.
// Invoked by the account lifecycle service, which retries on failure and
// treats ErrUnknownUser as already removed.
func (s *MessagingService) CascadeDeleteUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}

	var found bool
	err := withRetry(ctx, func() error {
		var deleteErr error
		found, deleteErr = s.profiles.Delete(ctx, userID)
		return deleteErr
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrUnknownUser
	}
	return nil
}

// withRetry re-runs fn a bounded number of times with backoff when the
// store reports a transient failure. Anything else surfaces immediately;
// partial writes are never visible because every statement is atomic.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	backoff := storeRetryBackoff
	for attempt := 0; attempt < storeRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err = fn()
		if err == nil || !pgconn.SafeToRetry(err) {
			return err
		}
	}
	return err
}

func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return ErrUnknownUser
		case pgCheckViolation:
			return ErrInvalidInput
		}
	}
	return err
}
