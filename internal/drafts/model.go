package drafts

// CandidateContent is the copywriting payload of one AI-generated variant.
type CandidateContent struct {
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	GeneratedAt      int64    `json:"generated_at"` // ms since epoch
}

// Candidate is one AI-generated result offered to the user for selection.
// Candidates are only ever appended; they disappear with their draft.
type Candidate struct {
	ID         string           `json:"id"`
	Content    CandidateContent `json:"content"`
	IsSelected bool             `json:"is_selected"`
}

// Draft is an in-progress, unpublished project showcase. Drafts live in
// Redis, keyed per user, retained up to the configured maximum and pruned
// by recency.
type Draft struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Title         string      `json:"title"`
	Summary       string      `json:"summary"`
	Description   string      `json:"description"`
	Tags          []string    `json:"tags"`
	CoverImageURL string      `json:"cover_image_url,omitempty"`
	Candidates    []Candidate `json:"candidates"`
	CreatedAt     int64       `json:"created_at"`     // ms since epoch
	LastSavedAt   int64       `json:"last_saved_at"`  // ms since epoch
}

// SelectedCandidate returns the currently selected candidate, or nil.
func (d *Draft) SelectedCandidate() *Candidate {
	for i := range d.Candidates {
		if d.Candidates[i].IsSelected {
			return &d.Candidates[i]
		}
	}
	return nil
}

type SaveDraftRequest struct {
	ID            string   `json:"id"`
	Title         string   `json:"title" validate:"required,min=1,max=255"`
	Summary       string   `json:"summary" validate:"max=500"`
	Description   string   `json:"description" validate:"max=10000"`
	Tags          []string `json:"tags" validate:"max=10,dive,min=1,max=50"`
	CoverImageURL string   `json:"cover_image_url" validate:"omitempty,url"`
}
