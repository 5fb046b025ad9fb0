package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/sidedish/sidedish/internal/metrics"
)

// Publisher provides typed methods for publishing events to NATS JetStream.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishUserRegistered publishes an account-creation event.
func (p *Publisher) PublishUserRegistered(ctx context.Context, event UserRegisteredEvent) error {
	return p.publish(ctx, SubjectUserRegistered, event)
}

// PublishProjectPublished publishes a draft-to-project publication event.
func (p *Publisher) PublishProjectPublished(ctx context.Context, event ProjectPublishedEvent) error {
	return p.publish(ctx, SubjectProjectPublished, event)
}

// PublishProjectLiked publishes a like or unlike event.
func (p *Publisher) PublishProjectLiked(ctx context.Context, event ProjectLikedEvent) error {
	return p.publish(ctx, SubjectProjectLiked, event)
}

// PublishCommentAdded publishes a new-comment event.
func (p *Publisher) PublishCommentAdded(ctx context.Context, event CommentAddedEvent) error {
	return p.publish(ctx, SubjectCommentAdded, event)
}

// PublishWhisperSent publishes a direct-message event.
func (p *Publisher) PublishWhisperSent(ctx context.Context, event WhisperSentEvent) error {
	return p.publish(ctx, SubjectWhisperSent, event)
}

// PublishGenerationRecorded publishes a recorded AI generation.
func (p *Publisher) PublishGenerationRecorded(ctx context.Context, event GenerationRecordedEvent) error {
	return p.publish(ctx, SubjectGeneration, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(subject).Inc()
	return nil
}
