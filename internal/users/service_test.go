package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidedish/sidedish/internal/cache"
)

type fakeRepository struct {
	Repository
	users       map[uuid.UUID]*User
	handleReads int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[uuid.UUID]*User)}
}

func (r *fakeRepository) Create(_ context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	return r.users[id], nil
}

func (r *fakeRepository) GetByHandle(_ context.Context, handle string) (*User, error) {
	r.handleReads++
	for _, u := range r.users {
		if u.Handle == handle {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) UpdateProfile(_ context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func TestService_ProfileCaching(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, cache.New())
	ctx := context.Background()

	user, err := svc.Create(ctx, "kirby@example.com", "chefkirby", "hash")
	require.NoError(t, err)

	p1, err := svc.GetProfileByHandle(ctx, "chefkirby")
	require.NoError(t, err)
	require.NotNil(t, p1)
	assert.Equal(t, "chefkirby", p1.Handle)

	// Second read is served from cache.
	_, err = svc.GetProfileByHandle(ctx, "chefkirby")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.handleReads)

	// A profile update invalidates the cached view.
	_, err = svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{DisplayName: "Chef Kirby", Bio: "I cook"})
	require.NoError(t, err)

	p2, err := svc.GetProfileByHandle(ctx, "chefkirby")
	require.NoError(t, err)
	assert.Equal(t, "Chef Kirby", p2.DisplayName)
	assert.Equal(t, 2, repo.handleReads)
}

func TestService_UnknownProfile(t *testing.T) {
	svc := NewService(newFakeRepository(), cache.New())

	p, err := svc.GetProfileByHandle(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestService_HandleFor(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, cache.New())
	ctx := context.Background()

	user, err := svc.Create(ctx, "kirby@example.com", "chefkirby", "hash")
	require.NoError(t, err)

	handle, err := svc.HandleFor(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "chefkirby", handle)

	_, err = svc.HandleFor(ctx, "not-a-uuid")
	assert.Error(t, err)
}
