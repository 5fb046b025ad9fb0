package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	List(ctx context.Context, params ListParams) ([]Project, int, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id uuid.UUID) error

	Like(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	Unlike(ctx context.Context, projectID, userID uuid.UUID) (bool, error)

	CreateComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, projectID uuid.UUID, params ListParams) ([]Comment, int, error)
	GetComment(ctx context.Context, id uuid.UUID) (*Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const projectColumns = `id, user_id, title, short_description, description, tags,
	cover_image_url, source_url, live_url, like_count, comment_count, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	p := &Project{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.ShortDescription, &p.Description, &p.Tags,
		&p.CoverImageURL, &p.SourceURL, &p.LiveURL, &p.LikeCount, &p.CommentCount,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (id, user_id, title, short_description, description, tags,
			cover_image_url, source_url, live_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.Title, p.ShortDescription, p.Description, p.Tags,
		p.CoverImageURL, p.SourceURL, p.LiveURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return p, nil
}

func (r *postgresRepository) List(ctx context.Context, params ListParams) ([]Project, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}

	query := `SELECT ` + projectColumns + `
		FROM projects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var list []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning project row: %w", err)
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, p *Project) error {
	query := `
		UPDATE projects
		SET title = $2, short_description = $3, description = $4, tags = $5,
			cover_image_url = $6, source_url = $7, live_url = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Title, p.ShortDescription, p.Description, p.Tags,
		p.CoverImageURL, p.SourceURL, p.LiveURL, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s not found", p.ID)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s not found", id)
	}
	return nil
}

// Like records a like once per user; a repeat like is a no-op. Returns
// whether a new like was recorded.
func (r *postgresRepository) Like(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO project_likes (project_id, user_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (project_id, user_id) DO NOTHING`, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("inserting like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE projects SET like_count = like_count + 1 WHERE id = $1`, projectID)
	if err != nil {
		return false, fmt.Errorf("incrementing like count: %w", err)
	}
	return true, nil
}

func (r *postgresRepository) Unlike(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM project_likes WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE projects SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1`, projectID)
	if err != nil {
		return false, fmt.Errorf("decrementing like count: %w", err)
	}
	return true, nil
}

func (r *postgresRepository) CreateComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO project_comments (id, project_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, c.ID, c.ProjectID, c.UserID, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE projects SET comment_count = comment_count + 1 WHERE id = $1`, c.ProjectID)
	if err != nil {
		return fmt.Errorf("incrementing comment count: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListComments(ctx context.Context, projectID uuid.UUID, params ListParams) ([]Comment, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM project_comments WHERE project_id = $1`, projectID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}

	query := `
		SELECT c.id, c.project_id, c.user_id, u.handle, c.body, c.created_at
		FROM project_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.project_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, projectID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var list []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.AuthorHandle, &c.Body, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning comment row: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

func (r *postgresRepository) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `SELECT id, project_id, user_id, body, created_at FROM project_comments WHERE id = $1`

	c := &Comment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Body, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying comment: %w", err)
	}
	return c, nil
}

func (r *postgresRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	var projectID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM project_comments WHERE id = $1 RETURNING project_id`, id).Scan(&projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("comment %s not found", id)
		}
		return fmt.Errorf("deleting comment: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE projects SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("decrementing comment count: %w", err)
	}
	return nil
}
