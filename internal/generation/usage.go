package generation

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Usage records are serialized as JSON arrays under two fixed keys. Corrupt
// or unreadable data degrades to an empty history: the limiter is a UX
// guard, not a security boundary, so losing history is preferable to
// blocking the feature.
const (
	draftUsageKey = "aiusage:drafts"
	dailyUsageKey = "aiusage:daily"

	dateLayout = "2006-01-02"
)

// DraftUsage tracks generations for one draft. GenerationCount only ever
// grows; the record is discarded with its draft.
type DraftUsage struct {
	DraftID         string `json:"draftId"`
	UserID          string `json:"userId"`
	GenerationCount int    `json:"generationCount"`
	LastGeneratedAt int64  `json:"lastGeneratedAt"`
}

// DailyUsage tracks generations for one user on one calendar day. Only the
// current day's record survives a write; stale dates are pruned for all
// users.
type DailyUsage struct {
	UserID          string `json:"userId"`
	Date            string `json:"date"`
	Count           int    `json:"count"`
	LastGeneratedAt int64  `json:"lastGeneratedAt"`
}

type UsageStore struct {
	kv  KV
	now func() time.Time

	// Both record sets live as whole arrays under single keys, so every
	// write is a read-modify-write of shared state. mu serializes writers
	// store-wide; the limiter's per-draft locks do not cover concurrent
	// generations on different drafts.
	mu sync.Mutex
}

func NewUsageStore(kv KV) *UsageStore {
	return &UsageStore{kv: kv, now: time.Now}
}

func (s *UsageStore) loadDrafts(ctx context.Context) []DraftUsage {
	raw, err := s.kv.Read(ctx, draftUsageKey)
	if err != nil {
		slog.Warn("usage: reading draft records failed, treating as empty", "error", err)
		return nil
	}
	if raw == "" {
		return nil
	}
	var records []DraftUsage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		slog.Warn("usage: corrupt draft records, treating as empty", "error", err)
		return nil
	}
	return records
}

func (s *UsageStore) loadDaily(ctx context.Context) []DailyUsage {
	raw, err := s.kv.Read(ctx, dailyUsageKey)
	if err != nil {
		slog.Warn("usage: reading daily records failed, treating as empty", "error", err)
		return nil
	}
	if raw == "" {
		return nil
	}
	var records []DailyUsage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		slog.Warn("usage: corrupt daily records, treating as empty", "error", err)
		return nil
	}
	return records
}

// ForDraft returns the usage record for (draftID, userID), or a zero record
// if none exists.
func (s *UsageStore) ForDraft(ctx context.Context, draftID, userID string) DraftUsage {
	for _, rec := range s.loadDrafts(ctx) {
		if rec.DraftID == draftID && rec.UserID == userID {
			return rec
		}
	}
	return DraftUsage{DraftID: draftID, UserID: userID}
}

// ForToday returns the user's usage record for the current calendar day.
// Records for other dates are never returned; counts reset at day
// boundaries.
func (s *UsageStore) ForToday(ctx context.Context, userID string) DailyUsage {
	today := s.now().Format(dateLayout)
	for _, rec := range s.loadDaily(ctx) {
		if rec.UserID == userID && rec.Date == today {
			return rec
		}
	}
	return DailyUsage{UserID: userID, Date: today}
}

// Record upserts both usage records for a generation that actually
// happened. Stale daily records (date != today) are pruned as part of the
// write, for every user.
func (s *UsageStore) Record(ctx context.Context, draftID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	nowMs := now.UnixMilli()
	today := now.Format(dateLayout)

	draftRecords := s.loadDrafts(ctx)
	found := false
	for i := range draftRecords {
		if draftRecords[i].DraftID == draftID && draftRecords[i].UserID == userID {
			draftRecords[i].GenerationCount++
			draftRecords[i].LastGeneratedAt = nowMs
			found = true
			break
		}
	}
	if !found {
		draftRecords = append(draftRecords, DraftUsage{
			DraftID:         draftID,
			UserID:          userID,
			GenerationCount: 1,
			LastGeneratedAt: nowMs,
		})
	}

	dailyRecords := s.loadDaily(ctx)
	kept := dailyRecords[:0]
	found = false
	for _, rec := range dailyRecords {
		if rec.Date != today {
			continue
		}
		if rec.UserID == userID {
			rec.Count++
			rec.LastGeneratedAt = nowMs
			found = true
		}
		kept = append(kept, rec)
	}
	if !found {
		kept = append(kept, DailyUsage{
			UserID:          userID,
			Date:            today,
			Count:           1,
			LastGeneratedAt: nowMs,
		})
	}

	if err := s.writeJSON(ctx, draftUsageKey, draftRecords); err != nil {
		return err
	}
	return s.writeJSON(ctx, dailyUsageKey, kept)
}

func (s *UsageStore) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Write(ctx, key, string(data))
}
