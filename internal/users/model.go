package users

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Handle       string    `json:"handle"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	WebsiteURL   string    `json:"website_url,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public view of a user: no email, no timestamps beyond
// join date.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	WebsiteURL  string    `json:"website_url,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		WebsiteURL:  u.WebsiteURL,
		JoinedAt:    u.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"max=80"`
	Bio         string `json:"bio" validate:"max=500"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
	WebsiteURL  string `json:"website_url" validate:"omitempty,url"`
}
