package models

import (
	"time"
)

// Profile represents a dating profile stored in the profiles table
type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Bio       *string   `json:"bio"`
	Interests []string  `json:"interests"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileView is a Profile annotated with whether the current user liked it.
// IsLiked stays nil (and absent from JSON) when no current user is known.
type ProfileView struct {
	Profile
	IsLiked *bool `json:"isLiked,omitempty"`
}

// NewProfile holds the fields written when a profile is inserted
type NewProfile struct {
	Username     string
	PasswordHash string
	Name         string
	Age          int
	Bio          *string
	Interests    []string
}

// LikeRecord is a row of the likes table: UserID liked ProfileID
type LikeRecord struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"user_id"`
	ProfileID int64 `json:"profile_id"`
}

// Session is returned after a successful register or login
type Session struct {
	ProfileID int64  `json:"profileId"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Token     string `json:"token,omitempty"`
}

// SessionFor projects a profile into a session, dropping the password
func SessionFor(p *Profile) *Session {
	return &Session{
		ProfileID: p.ID,
		Username:  p.Username,
		Name:      p.Name,
	}
}
