package whispers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sidedish/sidedish/internal/nats"
	"github.com/sidedish/sidedish/internal/users"
)

var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfWhisper       = errors.New("cannot whisper to yourself")
)

type Service struct {
	repo    Repository
	userSvc *users.Service
	events  *nats.Publisher
}

func NewService(repo Repository, userSvc *users.Service, events *nats.Publisher) *Service {
	return &Service{repo: repo, userSvc: userSvc, events: events}
}

// Send delivers a whisper to the user behind toHandle.
func (s *Service) Send(ctx context.Context, fromUserID uuid.UUID, req *SendWhisperRequest) (*Whisper, error) {
	recipient, err := s.userSvc.GetByHandle(ctx, req.ToHandle)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}
	if recipient.ID == fromUserID {
		return nil, ErrSelfWhisper
	}

	w := &Whisper{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   recipient.ID,
		ToHandle:   recipient.Handle,
		Body:       req.Body,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}

	if s.events != nil {
		err := s.events.PublishWhisperSent(ctx, nats.WhisperSentEvent{
			WhisperID:  w.ID,
			FromUserID: fromUserID,
			ToUserID:   recipient.ID,
			Timestamp:  w.CreatedAt,
		})
		if err != nil {
			slog.Warn("publishing whisper event", "whisper_id", w.ID, "error", err)
		}
	}

	return w, nil
}

func (s *Service) Inbox(ctx context.Context, userID uuid.UUID) ([]Whisper, error) {
	return s.repo.ListInbox(ctx, userID)
}

func (s *Service) Outbox(ctx context.Context, userID uuid.UUID) ([]Whisper, error) {
	return s.repo.ListOutbox(ctx, userID)
}

// MarkRead marks a whisper read; only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, userID, whisperID uuid.UUID) (*Whisper, error) {
	w, err := s.repo.GetByID(ctx, whisperID)
	if err != nil {
		return nil, err
	}
	if w == nil || w.ToUserID != userID {
		return nil, nil
	}

	if w.ReadAt == nil {
		now := time.Now()
		if err := s.repo.MarkRead(ctx, whisperID, now); err != nil {
			return nil, err
		}
		w.ReadAt = &now
	}
	return w, nil
}
