package whispers

import (
	"time"

	"github.com/google/uuid"
)

// Whisper is a private note from one user to another, typically feedback on
// a project before it goes public.
type Whisper struct {
	ID         uuid.UUID  `json:"id"`
	FromUserID uuid.UUID  `json:"from_user_id"`
	ToUserID   uuid.UUID  `json:"to_user_id"`
	FromHandle string     `json:"from_handle,omitempty"`
	ToHandle   string     `json:"to_handle,omitempty"`
	Body       string     `json:"body"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type SendWhisperRequest struct {
	ToHandle string `json:"to_handle" validate:"required,min=3,max=30"`
	Body     string `json:"body" validate:"required,min=1,max=2000"`
}
