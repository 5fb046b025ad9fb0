package nats

import (
	"time"

	"github.com/google/uuid"
)

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// StreamEvents holds every platform event under sidedish.events.>.
const StreamEvents = "SIDEDISH_EVENTS"

// Subject constants.
const (
	SubjectUserRegistered   = "sidedish.events.user.registered"
	SubjectProjectPublished = "sidedish.events.project.published"
	SubjectProjectLiked     = "sidedish.events.project.liked"
	SubjectCommentAdded     = "sidedish.events.comment.added"
	SubjectWhisperSent      = "sidedish.events.whisper.sent"
	SubjectGeneration       = "sidedish.events.generation.recorded"
)

// UserRegisteredEvent is published when a new account is created.
type UserRegisteredEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Handle    string    `json:"handle"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectPublishedEvent is published when a draft becomes a public project.
type ProjectPublishedEvent struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	DraftID   string    `json:"draft_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectLikedEvent is published on like and unlike.
type ProjectLikedEvent struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Liked     bool      `json:"liked"`
	Timestamp time.Time `json:"timestamp"`
}

// CommentAddedEvent is published when a comment lands on a project.
type CommentAddedEvent struct {
	CommentID uuid.UUID `json:"comment_id"`
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// WhisperSentEvent is published when a direct message is sent.
type WhisperSentEvent struct {
	WhisperID  uuid.UUID `json:"whisper_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// GenerationRecordedEvent is published after a successful AI generation has
// been recorded against a draft's quota.
type GenerationRecordedEvent struct {
	DraftID        string    `json:"draft_id"`
	UserID         string    `json:"user_id"`
	RemainingDraft int       `json:"remaining_draft"`
	RemainingDaily int       `json:"remaining_daily"`
	Timestamp      time.Time `json:"timestamp"`
}
