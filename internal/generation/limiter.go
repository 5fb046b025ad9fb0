package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Limits are the caps the limiter enforces. Defaults come from config:
// 3 per draft, 10 per user-day, 5s between attempts.
type Limits struct {
	MaxPerDraft int
	MaxPerDay   int
	Cooldown    time.Duration
}

// CheckResult reports eligibility plus the counters the UI renders.
// CooldownRemaining is in whole seconds, rounded up.
type CheckResult struct {
	CanGenerate       bool   `json:"canGenerate"`
	Reason            string `json:"reason,omitempty"`
	RemainingForDraft int    `json:"remainingForDraft"`
	RemainingForDay   int    `json:"remainingForDay"`
	CooldownRemaining int    `json:"cooldownRemaining"`
}

// Remaining is the read-only counter pair for UI display.
type Remaining struct {
	Draft int `json:"draft"`
	Daily int `json:"daily"`
}

// Limiter decides whether a (draft, user) pair may generate right now and
// records generations that happened. TryGenerate serializes check+record per
// draft so two concurrent calls cannot both pass the check before either
// records.
type Limiter struct {
	store  *UsageStore
	limits Limits
	now    func() time.Time

	mu       sync.Mutex
	draftMus map[string]*sync.Mutex
}

func NewLimiter(store *UsageStore, limits Limits) *Limiter {
	return &Limiter{
		store:    store,
		limits:   limits,
		now:      time.Now,
		draftMus: make(map[string]*sync.Mutex),
	}
}

// CheckCanGenerate evaluates, in precedence order: cooldown, draft cap,
// daily cap. Pure read, no side effects.
func (l *Limiter) CheckCanGenerate(ctx context.Context, draftID, userID string) CheckResult {
	draft := l.store.ForDraft(ctx, draftID, userID)
	daily := l.store.ForToday(ctx, userID)

	remainingDraft := max(0, l.limits.MaxPerDraft-draft.GenerationCount)
	remainingDay := max(0, l.limits.MaxPerDay-daily.Count)

	// A recent generation in either scope starts the cooldown.
	last := max(draft.LastGeneratedAt, daily.LastGeneratedAt)
	if last > 0 {
		remainingMs := l.limits.Cooldown.Milliseconds() - (l.now().UnixMilli() - last)
		if remainingMs > 0 {
			secs := int((remainingMs + 999) / 1000)
			return CheckResult{
				Reason:            fmt.Sprintf("please wait %d more second(s) before generating again", secs),
				RemainingForDraft: remainingDraft,
				RemainingForDay:   remainingDay,
				CooldownRemaining: secs,
			}
		}
	}

	if draft.GenerationCount >= l.limits.MaxPerDraft {
		return CheckResult{
			Reason:          "this draft has used all of its generations; pick one of the existing candidates",
			RemainingForDay: remainingDay,
		}
	}

	if daily.Count >= l.limits.MaxPerDay {
		return CheckResult{
			Reason:            "daily generation limit reached; try again tomorrow",
			RemainingForDraft: remainingDraft,
		}
	}

	return CheckResult{
		CanGenerate:       true,
		RemainingForDraft: remainingDraft,
		RemainingForDay:   remainingDay,
	}
}

// RecordGeneration must be called only after the provider call succeeded, so
// failed calls never consume quota.
func (l *Limiter) RecordGeneration(ctx context.Context, draftID, userID string) error {
	return l.store.Record(ctx, draftID, userID)
}

// GetRemaining combines both counters for display without re-deriving
// eligibility.
func (l *Limiter) GetRemaining(ctx context.Context, draftID, userID string) Remaining {
	draft := l.store.ForDraft(ctx, draftID, userID)
	daily := l.store.ForToday(ctx, userID)
	return Remaining{
		Draft: max(0, l.limits.MaxPerDraft-draft.GenerationCount),
		Daily: max(0, l.limits.MaxPerDay-daily.Count),
	}
}

// TryGenerate runs check, perform, record as one critical section keyed by
// draftID. If the check denies, perform never runs and the denying result is
// returned. If perform fails, nothing is recorded. A record failure after a
// successful perform is logged and swallowed: the user got their content.
func (l *Limiter) TryGenerate(ctx context.Context, draftID, userID string, perform func(context.Context) error) (CheckResult, error) {
	mu := l.draftLock(draftID)
	mu.Lock()
	defer mu.Unlock()

	res := l.CheckCanGenerate(ctx, draftID, userID)
	if !res.CanGenerate {
		return res, nil
	}

	if err := perform(ctx); err != nil {
		return res, err
	}

	if err := l.RecordGeneration(ctx, draftID, userID); err != nil {
		slog.Warn("limiter: recording generation failed", "draft_id", draftID, "user_id", userID, "error", err)
	}
	return res, nil
}

func (l *Limiter) draftLock(draftID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := l.draftMus[draftID]
	if !ok {
		mu = &sync.Mutex{}
		l.draftMus[draftID] = mu
	}
	return mu
}
