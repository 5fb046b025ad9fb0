package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	inats "github.com/sidedish/sidedish/internal/nats"
)

// Consumer projects every platform event into the activity_log table.
type Consumer struct {
	repo        *Repository
	consumerMgr *inats.ConsumerManager
}

func NewConsumer(repo *Repository, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		repo:        repo,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, "activity-projector", "sidedish.events.>")
	if err != nil {
		return err
	}

	slog.Info("activity consumer started", "consumer", "activity-projector")

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("activity consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	entry, err := EntryFromMessage(msg.Subject(), msg.Data())
	if err != nil {
		slog.Error("activity consumer: decoding event", "subject", msg.Subject(), "error", err)
		_ = msg.Nak()
		return
	}
	if entry == nil {
		// Unknown subject; acknowledge so it does not redeliver forever.
		_ = msg.Ack()
		return
	}

	if err := c.repo.Insert(ctx, entry); err != nil {
		slog.Error("activity consumer: persisting entry", "event_type", entry.EventType, "error", err)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()

	slog.Debug("activity consumer: persisted event",
		"event_type", entry.EventType,
		"user_id", entry.UserID,
		"subject_id", entry.SubjectID,
	)
}

// EntryFromMessage maps one published event onto an activity entry. Returns
// nil for subjects the projector does not track.
func EntryFromMessage(subject string, data []byte) (*Entry, error) {
	eventType := strings.TrimPrefix(subject, "sidedish.events.")
	entry := &Entry{
		ID:        uuid.New(),
		EventType: eventType,
		Details:   data,
	}

	switch subject {
	case inats.SubjectUserRegistered:
		var ev inats.UserRegisteredEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		entry.UserID = ev.UserID
		entry.SubjectType = "user"
		entry.SubjectID = ev.UserID.String()
		entry.CreatedAt = ev.Timestamp

	case inats.SubjectProjectPublished:
		var ev inats.ProjectPublishedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		entry.UserID = ev.UserID
		entry.SubjectType = "project"
		entry.SubjectID = ev.ProjectID.String()
		entry.CreatedAt = ev.Timestamp

	case inats.SubjectProjectLiked:
		var ev inats.ProjectLikedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		entry.UserID = ev.UserID
		entry.SubjectType = "project"
		entry.SubjectID = ev.ProjectID.String()
		entry.CreatedAt = ev.Timestamp

	case inats.SubjectCommentAdded:
		var ev inats.CommentAddedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		entry.UserID = ev.UserID
		entry.SubjectType = "project"
		entry.SubjectID = ev.ProjectID.String()
		entry.CreatedAt = ev.Timestamp

	case inats.SubjectWhisperSent:
		var ev inats.WhisperSentEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		entry.UserID = ev.FromUserID
		entry.SubjectType = "whisper"
		entry.SubjectID = ev.WhisperID.String()
		entry.CreatedAt = ev.Timestamp

	case inats.SubjectGeneration:
		var ev inats.GenerationRecordedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		userID, err := uuid.Parse(ev.UserID)
		if err != nil {
			return nil, err
		}
		entry.UserID = userID
		entry.SubjectType = "draft"
		entry.SubjectID = ev.DraftID
		entry.CreatedAt = ev.Timestamp

	default:
		return nil, nil
	}

	return entry, nil
}
