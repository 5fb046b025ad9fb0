package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidedish/sidedish/internal/cache"
	"github.com/sidedish/sidedish/internal/drafts"
)

type fakeProvider struct {
	calls   int
	err     error
	content GeneratedContent
}

func (p *fakeProvider) Generate(_ context.Context, _ GenerateRequest) (*GeneratedContent, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	c := p.content
	return &c, nil
}

func newTestService(t *testing.T, provider Provider) (*Service, *drafts.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := NewUsageStore(NewRedisKV(client))
	limiter := NewLimiter(store, Limits{MaxPerDraft: 3, MaxPerDay: 10, Cooldown: 5 * time.Second})
	draftStore := drafts.NewStore(client, 5)

	return NewService(limiter, provider, draftStore, cache.New(), nil), draftStore
}

func TestService_Generate(t *testing.T) {
	provider := &fakeProvider{content: GeneratedContent{
		ShortDescription: "A tiny tool",
		Description:      "A tiny tool that does one thing well.",
		Tags:             []string{"cli", "tooling"},
	}}
	svc, draftStore := newTestService(t, provider)
	ctx := context.Background()

	draft, err := draftStore.Save(ctx, "u1", &drafts.SaveDraftRequest{Title: "My tool"})
	require.NoError(t, err)

	cand, res, err := svc.Generate(ctx, "u1", draft.ID, GenerateRequest{Title: "My tool"})
	require.NoError(t, err)
	assert.True(t, res.CanGenerate)
	require.NotNil(t, cand)
	assert.Equal(t, "A tiny tool", cand.Content.ShortDescription)
	assert.Equal(t, 1, provider.calls)

	// The candidate is persisted on the draft.
	stored, err := draftStore.Get(ctx, "u1", draft.ID)
	require.NoError(t, err)
	require.Len(t, stored.Candidates, 1)
	assert.Equal(t, cand.ID, stored.Candidates[0].ID)

	// An immediate retry lands in the cooldown: denied, provider untouched.
	cand, res, err = svc.Generate(ctx, "u1", draft.ID, GenerateRequest{Title: "My tool"})
	require.NoError(t, err)
	assert.Nil(t, cand)
	assert.False(t, res.CanGenerate)
	assert.Positive(t, res.CooldownRemaining)
	assert.Equal(t, 1, provider.calls)
}

func TestService_GenerateProviderFailureConsumesNoQuota(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream down")}
	svc, draftStore := newTestService(t, provider)
	ctx := context.Background()

	draft, err := draftStore.Save(ctx, "u1", &drafts.SaveDraftRequest{Title: "My tool"})
	require.NoError(t, err)

	_, _, err = svc.Generate(ctx, "u1", draft.ID, GenerateRequest{Title: "My tool"})
	require.Error(t, err)

	info, err := svc.UsageInfo(ctx, draft.ID, "u1")
	require.NoError(t, err)
	assert.True(t, info.Check.CanGenerate)
	assert.Equal(t, Remaining{Draft: 3, Daily: 10}, info.Remaining)
}

func TestService_GenerateWithoutProvider(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, _, err := svc.Generate(context.Background(), "u1", "d1", GenerateRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestService_UsageInfoInvalidatedByGenerate(t *testing.T) {
	provider := &fakeProvider{content: GeneratedContent{ShortDescription: "x"}}
	svc, draftStore := newTestService(t, provider)
	ctx := context.Background()

	draft, err := draftStore.Save(ctx, "u1", &drafts.SaveDraftRequest{Title: "My tool"})
	require.NoError(t, err)

	// Prime the cached usage view.
	info, err := svc.UsageInfo(ctx, draft.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Remaining.Draft)

	_, _, err = svc.Generate(ctx, "u1", draft.ID, GenerateRequest{Title: "My tool"})
	require.NoError(t, err)

	// The generation invalidated the cached entry, so fresh counters show.
	info, err = svc.UsageInfo(ctx, draft.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Remaining.Draft)
	assert.False(t, info.Check.CanGenerate)
}

func TestService_UsageInfoCachedPerUser(t *testing.T) {
	provider := &fakeProvider{content: GeneratedContent{ShortDescription: "x"}}
	svc, draftStore := newTestService(t, provider)
	ctx := context.Background()

	draft, err := draftStore.Save(ctx, "u1", &drafts.SaveDraftRequest{Title: "My tool"})
	require.NoError(t, err)

	_, _, err = svc.Generate(ctx, "u1", draft.ID, GenerateRequest{Title: "My tool"})
	require.NoError(t, err)

	// u1's counters are cached and reflect the generation.
	info, err := svc.UsageInfo(ctx, draft.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, Remaining{Draft: 2, Daily: 9}, info.Remaining)

	// Another user asking about the same draft gets their own counters,
	// not u1's cached entry.
	info, err = svc.UsageInfo(ctx, draft.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, Remaining{Draft: 3, Daily: 10}, info.Remaining)
	assert.True(t, info.Check.CanGenerate)
}
