package models

import (
	"time"
)

// Hackathon statuses.
const (
	HackathonUpcoming = "upcoming"
	HackathonActive   = "active"
	HackathonEnded    = "ended"
)

// Hackathon represents an event organized on the platform.
type Hackathon struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"not null;size:255" json:"name"`
	OrganizerID      uint       `gorm:"not null;index" json:"organizer_id"`
	Status           string     `gorm:"not null;size:20;default:upcoming" json:"status"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           time.Time  `json:"ends_at"`
	ParticipantCount int        `gorm:"not null;default:0" json:"participant_count"`
	Rating           *float64   `json:"rating,omitempty"` // average feedback rating, nil until rated
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Hackathon model.
func (Hackathon) TableName() string {
	return "hackathons"
}

// HasEnded reports whether the hackathon is over.
func (h *Hackathon) HasEnded() bool {
	return h.Status == HackathonEnded
}

// Registration represents a user joining a hackathon. RegisteredAt may
// be absent on rows imported from legacy data; the early-bird rule
// treats a missing timestamp as not satisfied.
type Registration struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	HackathonID  uint       `gorm:"not null;uniqueIndex:idx_registrations_hackathon_user" json:"hackathon_id"`
	Hackathon    Hackathon  `gorm:"foreignKey:HackathonID" json:"hackathon,omitempty"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_registrations_hackathon_user" json:"user_id"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// TableName specifies the table name for Registration model.
func (Registration) TableName() string {
	return "registrations"
}

// Project represents a submitted project.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	HackathonID uint      `gorm:"not null;index" json:"hackathon_id"`
	TeamID      *uint     `gorm:"index" json:"team_id,omitempty"` // nil for solo submissions
	Name        string    `gorm:"size:255" json:"name"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}

// TableName specifies the table name for Project model.
func (Project) TableName() string {
	return "projects"
}

// HackathonWinner records a winning user (and their team, if any) for a
// hackathon. A hackathon may list multiple winners (podium places).
type HackathonWinner struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HackathonID uint      `gorm:"not null;uniqueIndex:idx_winners_hackathon_user" json:"hackathon_id"`
	Hackathon   Hackathon `gorm:"foreignKey:HackathonID" json:"hackathon,omitempty"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_winners_hackathon_user" json:"user_id"`
	TeamID      *uint     `gorm:"index" json:"team_id,omitempty"`
	Place       int       `gorm:"not null;default:1" json:"place"`
}

// TableName specifies the table name for HackathonWinner model.
func (HackathonWinner) TableName() string {
	return "hackathon_winners"
}

// JudgingRecord represents one scored submission by a judge.
type JudgingRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JudgeID     uint      `gorm:"not null;index" json:"judge_id"`
	HackathonID uint      `gorm:"not null;index" json:"hackathon_id"`
	ProjectID   uint      `gorm:"not null" json:"project_id"`
	Score       float64   `json:"score"`
	ScoredAt    time.Time `gorm:"not null" json:"scored_at"`
}

// TableName specifies the table name for JudgingRecord model.
func (JudgingRecord) TableName() string {
	return "judging_records"
}

// Mentorship represents a mentor guiding a project.
type Mentorship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MentorID    uint      `gorm:"not null;index" json:"mentor_id"`
	ProjectID   uint      `gorm:"not null" json:"project_id"`
	HackathonID uint      `gorm:"not null;index" json:"hackathon_id"`
	TeamID      *uint     `gorm:"index" json:"team_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for Mentorship model.
func (Mentorship) TableName() string {
	return "mentorships"
}
