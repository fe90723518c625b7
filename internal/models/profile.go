package models

import "time"

// Profile is the local mirror of the platform's profile directory, kept in
// sync by the internal upsert/delete endpoints. The messaging core only
// needs it for participant existence checks and summary display metadata.
type Profile struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	RoleArtist    = "artist"
	RoleOrganizer = "organizer"
)

func ValidProfileRole(role string) bool {
	return role == RoleArtist || role == RoleOrganizer
}
