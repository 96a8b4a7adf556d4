package models

import "time"

const (
	EventProfileLiked   = "profile.liked"
	EventProfileCreated = "profile.created"
)

// Event is the envelope published to the profile events topic
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id,omitempty"`
	ProfileID  int64     `json:"profile_id"`
	Likes      int       `json:"likes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LikeNotification is an entry of a profile's likes-received inbox
type LikeNotification struct {
	FromUserID int64     `json:"from_user_id"`
	ProfileID  int64     `json:"profile_id"`
	LikedAt    time.Time `json:"liked_at"`
}
