package projects

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidedish/sidedish/internal/cache"
	"github.com/sidedish/sidedish/internal/drafts"
)

type fakeRepository struct {
	Repository
	projects  map[uuid.UUID]*Project
	listCalls int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{projects: make(map[uuid.UUID]*Project)}
}

func (r *fakeRepository) Create(_ context.Context, p *Project) error {
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id uuid.UUID) (*Project, error) {
	return r.projects[id], nil
}

func (r *fakeRepository) List(_ context.Context, _ ListParams) ([]Project, int, error) {
	r.listCalls++
	var list []Project
	for _, p := range r.projects {
		list = append(list, *p)
	}
	return list, len(list), nil
}

func (r *fakeRepository) Update(_ context.Context, p *Project) error {
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func TestService_PublishFromDraft(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, cache.New(), nil)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("selected candidate copy wins", func(t *testing.T) {
		d := &drafts.Draft{
			ID:          "d1",
			Title:       "Tiny Tool",
			Summary:     "hand-written summary",
			Description: "hand-written description",
			Tags:        []string{"go"},
			Candidates: []drafts.Candidate{
				{ID: "c1", Content: drafts.CandidateContent{ShortDescription: "losing variant"}},
				{
					ID:         "c2",
					IsSelected: true,
					Content: drafts.CandidateContent{
						ShortDescription: "A tiny tool that does one thing well",
						Description:      "Generated long-form copy.",
						Tags:             []string{"cli", "tooling"},
					},
				},
			},
		}

		p, err := svc.PublishFromDraft(ctx, userID, d)
		require.NoError(t, err)
		assert.Equal(t, "Tiny Tool", p.Title)
		assert.Equal(t, "A tiny tool that does one thing well", p.ShortDescription)
		assert.Equal(t, "Generated long-form copy.", p.Description)
		assert.Equal(t, []string{"cli", "tooling"}, p.Tags)
		assert.Equal(t, userID, p.UserID)
	})

	t.Run("no selection keeps the draft's own copy", func(t *testing.T) {
		d := &drafts.Draft{
			ID:          "d2",
			Title:       "Other Tool",
			Summary:     "summary",
			Description: "description",
		}

		p, err := svc.PublishFromDraft(ctx, userID, d)
		require.NoError(t, err)
		assert.Equal(t, "summary", p.ShortDescription)
		assert.Equal(t, "description", p.Description)
	})
}

func TestService_ListCachedAndInvalidatedByPublish(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, cache.New(), nil)
	ctx := context.Background()

	_, total, err := svc.List(ctx, DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// Cached: the repository is not consulted again.
	_, _, err = svc.List(ctx, DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// Publishing invalidates the feed pages.
	_, err = svc.PublishFromDraft(ctx, uuid.New(), &drafts.Draft{ID: "d1", Title: "t"})
	require.NoError(t, err)

	_, total, err = svc.List(ctx, DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 2, repo.listCalls)
}

func TestService_UpdateInvalidatesProjectView(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, cache.New(), nil)
	ctx := context.Background()

	p, err := svc.PublishFromDraft(ctx, uuid.New(), &drafts.Draft{ID: "d1", Title: "before"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Title)

	_, err = svc.Update(ctx, p, &UpdateProjectRequest{Title: "after"})
	require.NoError(t, err)

	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
}
