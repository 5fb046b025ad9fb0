package projects

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sidedish/sidedish/internal/cache"
	"github.com/sidedish/sidedish/internal/drafts"
	"github.com/sidedish/sidedish/internal/nats"
)

type Service struct {
	repo   Repository
	cache  *cache.Cache
	events *nats.Publisher
}

func NewService(repo Repository, c *cache.Cache, events *nats.Publisher) *Service {
	return &Service{repo: repo, cache: c, events: events}
}

// page bundles a list result so it can live in the cache as one value.
type page[T any] struct {
	Items []T
	Total int
}

// List returns the public feed, newest first, cached per page.
func (s *Service) List(ctx context.Context, params ListParams) ([]Project, int, error) {
	key := fmt.Sprintf("projects:recent:%d:%d", params.Page, params.PageSize)
	v, err := s.cache.GetOrFetch(ctx, key, cache.TTLDefault, func(ctx context.Context) (any, error) {
		items, total, err := s.repo.List(ctx, params)
		if err != nil {
			return nil, err
		}
		return page[Project]{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	pg := v.(page[Project])
	return pg.Items, pg.Total, nil
}

// Get returns one project, cached briefly.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	v, err := s.cache.GetOrFetch(ctx, projectKey(id), cache.TTLDefault, func(ctx context.Context) (any, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Project), nil
}

// GetUncached bypasses the cache for ownership checks on mutations.
func (s *Service) GetUncached(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// PublishFromDraft turns a draft into a public project. The selected
// candidate's copy, if any, wins over the draft's own description fields.
func (s *Service) PublishFromDraft(ctx context.Context, userID uuid.UUID, d *drafts.Draft) (*Project, error) {
	now := time.Now()
	p := &Project{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         d.Title,
		Description:   d.Description,
		Tags:          d.Tags,
		CoverImageURL: d.CoverImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.ShortDescription = d.Summary

	if sel := d.SelectedCandidate(); sel != nil {
		p.ShortDescription = sel.Content.ShortDescription
		p.Description = sel.Content.Description
		if len(sel.Content.Tags) > 0 {
			p.Tags = sel.Content.Tags
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.cache.Invalidate("projects:recent")

	if s.events != nil {
		err := s.events.PublishProjectPublished(ctx, nats.ProjectPublishedEvent{
			ProjectID: p.ID,
			UserID:    userID,
			Title:     p.Title,
			DraftID:   d.ID,
			Timestamp: now,
		})
		if err != nil {
			slog.Warn("publishing project event", "project_id", p.ID, "error", err)
		}
	}

	return p, nil
}

func (s *Service) Update(ctx context.Context, p *Project, req *UpdateProjectRequest) (*Project, error) {
	p.Title = req.Title
	p.ShortDescription = req.ShortDescription
	p.Description = req.Description
	p.Tags = req.Tags
	p.CoverImageURL = req.CoverImageURL
	p.SourceURL = req.SourceURL
	p.LiveURL = req.LiveURL
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.invalidateProject(p.ID)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateProject(id)
	return nil
}

func (s *Service) Like(ctx context.Context, projectID, userID uuid.UUID) error {
	liked, err := s.repo.Like(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !liked {
		return nil
	}

	s.invalidateProject(projectID)

	if s.events != nil {
		err := s.events.PublishProjectLiked(ctx, nats.ProjectLikedEvent{
			ProjectID: projectID,
			UserID:    userID,
			Liked:     true,
			Timestamp: time.Now(),
		})
		if err != nil {
			slog.Warn("publishing like event", "project_id", projectID, "error", err)
		}
	}
	return nil
}

func (s *Service) Unlike(ctx context.Context, projectID, userID uuid.UUID) error {
	unliked, err := s.repo.Unlike(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !unliked {
		return nil
	}

	s.invalidateProject(projectID)

	if s.events != nil {
		err := s.events.PublishProjectLiked(ctx, nats.ProjectLikedEvent{
			ProjectID: projectID,
			UserID:    userID,
			Liked:     false,
			Timestamp: time.Now(),
		})
		if err != nil {
			slog.Warn("publishing unlike event", "project_id", projectID, "error", err)
		}
	}
	return nil
}

func (s *Service) AddComment(ctx context.Context, projectID, userID uuid.UUID, body string) (*Comment, error) {
	c := &Comment{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	s.invalidateProject(projectID)
	s.cache.Invalidate(commentsKeyPrefix(projectID))

	if s.events != nil {
		err := s.events.PublishCommentAdded(ctx, nats.CommentAddedEvent{
			CommentID: c.ID,
			ProjectID: projectID,
			UserID:    userID,
			Timestamp: c.CreatedAt,
		})
		if err != nil {
			slog.Warn("publishing comment event", "project_id", projectID, "error", err)
		}
	}
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, projectID uuid.UUID, params ListParams) ([]Comment, int, error) {
	key := fmt.Sprintf("%s%d:%d", commentsKeyPrefix(projectID), params.Page, params.PageSize)
	v, err := s.cache.GetOrFetch(ctx, key, cache.TTLDefault, func(ctx context.Context) (any, error) {
		items, total, err := s.repo.ListComments(ctx, projectID, params)
		if err != nil {
			return nil, err
		}
		return page[Comment]{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	pg := v.(page[Comment])
	return pg.Items, pg.Total, nil
}

func (s *Service) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	return s.repo.GetComment(ctx, id)
}

func (s *Service) DeleteComment(ctx context.Context, c *Comment) error {
	if err := s.repo.DeleteComment(ctx, c.ID); err != nil {
		return err
	}
	s.invalidateProject(c.ProjectID)
	s.cache.Invalidate(commentsKeyPrefix(c.ProjectID))
	return nil
}

func (s *Service) invalidateProject(id uuid.UUID) {
	s.cache.Invalidate(projectKey(id))
	s.cache.Invalidate("projects:recent")
}

func projectKey(id uuid.UUID) string {
	return "project:" + id.String()
}

func commentsKeyPrefix(projectID uuid.UUID) string {
	return "comments:" + projectID.String() + ":"
}
