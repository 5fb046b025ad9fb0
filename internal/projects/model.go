package projects

import (
	"time"

	"github.com/google/uuid"
)

// Project is a published showcase. It is born from a draft (plus the
// selected AI candidate, if any) or edited in place afterwards.
type Project struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"short_description"`
	Description      string    `json:"description"`
	Tags             []string  `json:"tags"`
	CoverImageURL    string    `json:"cover_image_url,omitempty"`
	SourceURL        string    `json:"source_url,omitempty"`
	LiveURL          string    `json:"live_url,omitempty"`
	LikeCount        int       `json:"like_count"`
	CommentCount     int       `json:"comment_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Comment struct {
	ID           uuid.UUID `json:"id"`
	ProjectID    uuid.UUID `json:"project_id"`
	UserID       uuid.UUID `json:"user_id"`
	AuthorHandle string    `json:"author_handle"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

type UpdateProjectRequest struct {
	Title            string   `json:"title" validate:"required,min=1,max=255"`
	ShortDescription string   `json:"short_description" validate:"max=500"`
	Description      string   `json:"description" validate:"max=10000"`
	Tags             []string `json:"tags" validate:"max=10,dive,min=1,max=50"`
	CoverImageURL    string   `json:"cover_image_url" validate:"omitempty,url"`
	SourceURL        string   `json:"source_url" validate:"omitempty,url"`
	LiveURL          string   `json:"live_url" validate:"omitempty,url"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type ListParams struct {
	Page     int
	PageSize int
}

func DefaultListParams() ListParams {
	return ListParams{Page: 1, PageSize: 20}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
