package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sidedish/sidedish/internal/cache"
	"github.com/sidedish/sidedish/internal/drafts"
	"github.com/sidedish/sidedish/internal/metrics"
	"github.com/sidedish/sidedish/internal/nats"
)

// ErrProviderNotConfigured is returned when no copywriting endpoint is set.
var ErrProviderNotConfigured = errors.New("ai provider not configured")

// Service orchestrates eligibility checking, the provider call, candidate
// storage and usage recording for one generation attempt.
type Service struct {
	limiter  *Limiter
	provider Provider
	drafts   *drafts.Store
	cache    *cache.Cache
	events   *nats.Publisher
	now      func() time.Time
}

func NewService(limiter *Limiter, provider Provider, draftStore *drafts.Store, c *cache.Cache, events *nats.Publisher) *Service {
	return &Service{
		limiter:  limiter,
		provider: provider,
		drafts:   draftStore,
		cache:    c,
		events:   events,
		now:      time.Now,
	}
}

// UsageInfo combines the eligibility check and the remaining counters for
// UI display.
type UsageInfo struct {
	Check     CheckResult `json:"check"`
	Remaining Remaining   `json:"remaining"`
}

// Generate runs one gated generation attempt. A denied check returns a nil
// candidate and the denying result, not an error. Quota is only consumed
// after the provider call and candidate append both succeed.
func (s *Service) Generate(ctx context.Context, userID, draftID string, req GenerateRequest) (*drafts.Candidate, CheckResult, error) {
	if s.provider == nil {
		return nil, CheckResult{}, ErrProviderNotConfigured
	}

	var candidate *drafts.Candidate
	res, err := s.limiter.TryGenerate(ctx, draftID, userID, func(ctx context.Context) error {
		content, err := s.provider.Generate(ctx, req)
		if err != nil {
			return err
		}
		cand, err := s.drafts.AppendCandidate(ctx, userID, draftID, drafts.CandidateContent{
			ShortDescription: content.ShortDescription,
			Description:      content.Description,
			Tags:             content.Tags,
			GeneratedAt:      s.now().UnixMilli(),
		})
		if err != nil {
			return err
		}
		candidate = cand
		return nil
	})
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("error").Inc()
		return nil, res, err
	}
	if !res.CanGenerate {
		metrics.GenerationsTotal.WithLabelValues("denied").Inc()
		return nil, res, nil
	}
	metrics.GenerationsTotal.WithLabelValues("ok").Inc()

	s.cache.Invalidate(usageKey(draftID, userID))

	if s.events != nil {
		remaining := s.limiter.GetRemaining(ctx, draftID, userID)
		event := nats.GenerationRecordedEvent{
			DraftID:        draftID,
			UserID:         userID,
			RemainingDraft: remaining.Draft,
			RemainingDaily: remaining.Daily,
			Timestamp:      s.now(),
		}
		if err := s.events.PublishGenerationRecorded(ctx, event); err != nil {
			slog.Warn("publishing generation event", "draft_id", draftID, "error", err)
		}
	}

	return candidate, res, nil
}

// UsageInfo returns the current eligibility and counters for a draft,
// cached briefly since every editor poll asks for it.
func (s *Service) UsageInfo(ctx context.Context, draftID, userID string) (*UsageInfo, error) {
	v, err := s.cache.GetOrFetch(ctx, usageKey(draftID, userID), cache.TTLUsage, func(ctx context.Context) (any, error) {
		return &UsageInfo{
			Check:     s.limiter.CheckCanGenerate(ctx, draftID, userID),
			Remaining: s.limiter.GetRemaining(ctx, draftID, userID),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*UsageInfo), nil
}

// usageKey scopes the cached counters to the caller: daily quota is per
// user, so two users polling the same draft must not share an entry.
func usageKey(draftID, userID string) string {
	return "ai-usage:" + draftID + ":" + userID
}
