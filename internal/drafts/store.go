package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store keeps each user's drafts as a JSON document in Redis.
type Store struct {
	client    redis.Cmdable
	maxDrafts int
	now       func() time.Time
}

// NewStore creates a draft store retaining up to maxDrafts drafts per user.
func NewStore(client redis.Cmdable, maxDrafts int) *Store {
	return &Store{client: client, maxDrafts: maxDrafts, now: time.Now}
}

func draftsKey(userID string) string {
	return "drafts:" + userID
}

func (s *Store) load(ctx context.Context, userID string) ([]Draft, error) {
	val, err := s.client.Get(ctx, draftsKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading drafts for %s: %w", userID, err)
	}

	var list []Draft
	if err := json.Unmarshal([]byte(val), &list); err != nil {
		return nil, fmt.Errorf("decoding drafts for %s: %w", userID, err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, userID string, list []Draft) error {
	// Most recently saved first; prune past the retention limit.
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastSavedAt > list[j].LastSavedAt
	})
	if len(list) > s.maxDrafts {
		list = list[:s.maxDrafts]
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding drafts for %s: %w", userID, err)
	}
	if err := s.client.Set(ctx, draftsKey(userID), string(data), 0).Err(); err != nil {
		return fmt.Errorf("writing drafts for %s: %w", userID, err)
	}
	return nil
}

// Save upserts a draft. The candidate list of an existing draft is
// preserved; only the editable fields are replaced.
func (s *Store) Save(ctx context.Context, userID string, req *SaveDraftRequest) (*Draft, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	nowMs := s.now().UnixMilli()
	var d *Draft
	if req.ID != "" {
		for i := range list {
			if list[i].ID == req.ID {
				d = &list[i]
				break
			}
		}
	}
	if d == nil {
		list = append(list, Draft{
			ID:        uuid.NewString(),
			UserID:    userID,
			CreatedAt: nowMs,
		})
		d = &list[len(list)-1]
	}

	d.Title = req.Title
	d.Summary = req.Summary
	d.Description = req.Description
	d.Tags = req.Tags
	d.CoverImageURL = req.CoverImageURL
	d.LastSavedAt = nowMs

	saved := *d
	if err := s.save(ctx, userID, list); err != nil {
		return nil, err
	}
	return &saved, nil
}

// List returns the user's drafts, most recently saved first.
func (s *Store) List(ctx context.Context, userID string) ([]Draft, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastSavedAt > list[j].LastSavedAt
	})
	return list, nil
}

// Get returns one draft, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, userID, draftID string) (*Draft, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == draftID {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Delete removes a draft and, with it, its candidates.
func (s *Store) Delete(ctx context.Context, userID, draftID string) error {
	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, d := range list {
		if d.ID == draftID {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return fmt.Errorf("draft %s not found", draftID)
	}
	return s.save(ctx, userID, kept)
}

// AppendCandidate adds a generated variant to the draft's candidate list.
func (s *Store) AppendCandidate(ctx context.Context, userID, draftID string, content CandidateContent) (*Candidate, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != draftID {
			continue
		}
		cand := Candidate{ID: uuid.NewString(), Content: content}
		list[i].Candidates = append(list[i].Candidates, cand)
		if err := s.save(ctx, userID, list); err != nil {
			return nil, err
		}
		return &cand, nil
	}
	return nil, fmt.Errorf("draft %s not found", draftID)
}

// SelectCandidate marks one candidate as selected and deselects the rest.
func (s *Store) SelectCandidate(ctx context.Context, userID, draftID, candidateID string) (*Draft, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != draftID {
			continue
		}
		found := false
		for j := range list[i].Candidates {
			sel := list[i].Candidates[j].ID == candidateID
			list[i].Candidates[j].IsSelected = sel
			if sel {
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("candidate %s not found on draft %s", candidateID, draftID)
		}
		d := list[i]
		if err := s.save(ctx, userID, list); err != nil {
			return nil, err
		}
		return &d, nil
	}
	return nil, fmt.Errorf("draft %s not found", draftID)
}
