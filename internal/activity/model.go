package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry matches the activity_log table: one row per platform event, keyed
// by the acting user so the feed endpoint can serve "your recent activity".
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	EventType   string          `json:"event_type"`
	SubjectType string          `json:"subject_type,omitempty"`
	SubjectID   string          `json:"subject_id,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListParams holds pagination and filtering for activity queries.
type ListParams struct {
	EventType string
	Page      int
	PageSize  int
}

// DefaultListParams returns sensible defaults.
func DefaultListParams() ListParams {
	return ListParams{
		Page:     1,
		PageSize: 20,
	}
}
