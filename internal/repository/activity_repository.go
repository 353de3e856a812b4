package repository

import (
	"fmt"
	"time"

	"github.com/hackboard/badge-engine/internal/models"
)

// earlyRegistrationWindow is how soon after a hackathon's creation a
// registration counts as early.
const earlyRegistrationWindow = 24 * time.Hour

// ActivityRepository reads the denormalized activity facts the unlock
// engine evaluates. All methods are pure reads.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CountSubmittedProjects returns the number of projects a user has submitted.
func (r *ActivityRepository) CountSubmittedProjects(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Project{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count projects for user %d: %w", userID, err)
	}
	return int(count), nil
}

// CountDistinctTeams returns the number of distinct teams a user has
// submitted projects with. Solo submissions carry no team and are not counted.
func (r *ActivityRepository) CountDistinctTeams(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Project{}).
		Where("user_id = ? AND team_id IS NOT NULL", userID).
		Distinct("team_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count teams for user %d: %w", userID, err)
	}
	return int(count), nil
}

// CountRegistrations returns the number of hackathons a user has joined.
func (r *ActivityRepository) CountRegistrations(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Registration{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations for user %d: %w", userID, err)
	}
	return int(count), nil
}

// CountEarlyRegistrations returns how many of a user's registrations
// happened within 24 hours of the hackathon being created. Rows with no
// registration timestamp never qualify.
func (r *ActivityRepository) CountEarlyRegistrations(userID uint) (int, error) {
	var registrations []models.Registration
	err := r.db.
		Where("user_id = ? AND registered_at IS NOT NULL", userID).
		Preload("Hackathon").
		Find(&registrations).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load registrations for user %d: %w", userID, err)
	}

	count := 0
	for _, reg := range registrations {
		if reg.Hackathon.ID == 0 {
			continue // hackathon deleted since registration
		}
		if !reg.RegisteredAt.After(reg.Hackathon.CreatedAt.Add(earlyRegistrationWindow)) {
			count++
		}
	}
	return count, nil
}

// CountWins returns the number of ended hackathons that list the user
// as a winner.
func (r *ActivityRepository) CountWins(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.HackathonWinner{}).
		Joins("JOIN hackathons ON hackathons.id = hackathon_winners.hackathon_id").
		Where("hackathon_winners.user_id = ? AND hackathons.status = ?", userID, models.HackathonEnded).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count wins for user %d: %w", userID, err)
	}
	return int(count), nil
}

// OrganizerStats aggregates an organizer's hosting activity.
type OrganizerStats struct {
	Hackathons        int
	TotalParticipants int
	MaxParticipants   int
	AvgRating         float64
	RatedHackathons   int
}

// GetOrganizerStats aggregates hosting stats for an organizer.
func (r *ActivityRepository) GetOrganizerStats(organizerID uint) (*OrganizerStats, error) {
	var row struct {
		Hackathons        int64
		TotalParticipants int64
		MaxParticipants   int64
		AvgRating         *float64
		RatedHackathons   int64
	}
	err := r.db.Model(&models.Hackathon{}).
		Select(
			"COUNT(*) AS hackathons, " +
				"COALESCE(SUM(participant_count), 0) AS total_participants, " +
				"COALESCE(MAX(participant_count), 0) AS max_participants, " +
				"AVG(rating) AS avg_rating, " +
				"COUNT(rating) AS rated_hackathons",
		).
		Where("organizer_id = ?", organizerID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate organizer stats for user %d: %w", organizerID, err)
	}

	stats := &OrganizerStats{
		Hackathons:        int(row.Hackathons),
		TotalParticipants: int(row.TotalParticipants),
		MaxParticipants:   int(row.MaxParticipants),
		RatedHackathons:   int(row.RatedHackathons),
	}
	if row.AvgRating != nil {
		stats.AvgRating = *row.AvgRating
	}
	return stats, nil
}

// JudgeStats aggregates a judge's scoring activity.
type JudgeStats struct {
	Submissions int
	Hackathons  int
}

// GetJudgeStats aggregates scoring stats for a judge.
func (r *ActivityRepository) GetJudgeStats(judgeID uint) (*JudgeStats, error) {
	var submissions int64
	err := r.db.Model(&models.JudgingRecord{}).
		Where("judge_id = ?", judgeID).
		Count(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count judged submissions for user %d: %w", judgeID, err)
	}

	var hackathons int64
	err = r.db.Model(&models.JudgingRecord{}).
		Where("judge_id = ?", judgeID).
		Distinct("hackathon_id").
		Count(&hackathons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count judged hackathons for user %d: %w", judgeID, err)
	}

	return &JudgeStats{
		Submissions: int(submissions),
		Hackathons:  int(hackathons),
	}, nil
}

// MentorStats aggregates a mentor's guidance activity.
type MentorStats struct {
	Projects     int
	WinningTeams int
}

// GetMentorStats aggregates mentorship stats for a mentor. WinningTeams
// counts distinct mentored teams that won an ended hackathon.
func (r *ActivityRepository) GetMentorStats(mentorID uint) (*MentorStats, error) {
	var projects int64
	err := r.db.Model(&models.Mentorship{}).
		Where("mentor_id = ?", mentorID).
		Count(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count mentorships for user %d: %w", mentorID, err)
	}

	winnerTeams := r.db.Model(&models.HackathonWinner{}).
		Select("hackathon_winners.team_id").
		Joins("JOIN hackathons ON hackathons.id = hackathon_winners.hackathon_id").
		Where("hackathons.status = ? AND hackathon_winners.team_id IS NOT NULL", models.HackathonEnded)

	var winningTeams int64
	err = r.db.Model(&models.Mentorship{}).
		Where("mentor_id = ? AND team_id IS NOT NULL AND team_id IN (?)", mentorID, winnerTeams).
		Distinct("team_id").
		Count(&winningTeams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count winning mentored teams for user %d: %w", mentorID, err)
	}

	return &MentorStats{
		Projects:     int(projects),
		WinningTeams: int(winningTeams),
	}, nil
}
