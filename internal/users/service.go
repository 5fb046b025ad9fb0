package users

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sidedish/sidedish/internal/cache"
)

type Service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

func (s *Service) Create(ctx context.Context, email, handle, passwordHash string) (*User, error) {
	now := time.Now()
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Handle:       handle,
		DisplayName:  handle,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (*User, error) {
	return s.repo.GetByHandle(ctx, handle)
}

func (s *Service) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}

func (s *Service) ExistsByHandle(ctx context.Context, handle string) (bool, error) {
	return s.repo.ExistsByHandle(ctx, handle)
}

// HandleFor resolves the current handle for a user ID; used when rotating
// access tokens.
func (s *Service) HandleFor(ctx context.Context, userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil || user == nil {
		return "", err
	}
	return user.Handle, nil
}

// GetProfileByHandle serves the public profile page; cached since profiles
// change rarely relative to how often they are viewed.
func (s *Service) GetProfileByHandle(ctx context.Context, handle string) (*Profile, error) {
	v, err := s.cache.GetOrFetch(ctx, profileKey(handle), cache.TTLProfile, func(ctx context.Context) (any, error) {
		user, err := s.repo.GetByHandle(ctx, handle)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return (*Profile)(nil), nil
		}
		return user.Profile(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Profile), nil
}

// UpdateProfile applies the editable fields and invalidates every cached
// view of this user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	user.DisplayName = req.DisplayName
	user.Bio = req.Bio
	user.AvatarURL = req.AvatarURL
	user.WebsiteURL = req.WebsiteURL
	user.UpdatedAt = time.Now()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.cache.Invalidate(profileKey(user.Handle))
	s.cache.Invalidate("user:" + user.ID.String())

	return user, nil
}

func profileKey(handle string) string {
	return "user:handle:" + handle
}
