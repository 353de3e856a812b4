package models

import (
	"time"
)

// Valid values for the optional enum-typed profile fields. Empty
// strings are not valid; SanitizeEnums normalizes them to absent.
var (
	ValidExperienceLevels = map[string]bool{
		"beginner":     true,
		"intermediate": true,
		"advanced":     true,
	}
	ValidPreferredTracks = map[string]bool{
		"web":    true,
		"mobile": true,
		"ai":     true,
		"devops": true,
		"open":   true,
	}
)

// User represents a platform user in the system.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email           string     `gorm:"size:255" json:"email"`
	Role            string     `gorm:"not null;size:20;default:participant" json:"role"` // participant, organizer, judge, mentor
	CurrentStreak   int        `gorm:"not null;default:0" json:"current_streak"`         // consecutive active days
	LastActiveAt    *time.Time `json:"last_active_at,omitempty"`
	ExperienceLevel *string    `gorm:"size:20" json:"experience_level,omitempty"`
	PreferredTrack  *string    `gorm:"size:20" json:"preferred_track,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// SanitizeEnums normalizes invalid enum-typed profile fields to absent
// so that an unrelated partial form save cannot make the record
// unwritable. Empty strings and unknown values become NULL.
func (u *User) SanitizeEnums() {
	if u.ExperienceLevel != nil && !ValidExperienceLevels[*u.ExperienceLevel] {
		u.ExperienceLevel = nil
	}
	if u.PreferredTrack != nil && !ValidPreferredTracks[*u.PreferredTrack] {
		u.PreferredTrack = nil
	}
}
