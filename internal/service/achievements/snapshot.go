package achievements

import (
	"fmt"

	"github.com/hackboard/badge-engine/internal/models"
	"github.com/hackboard/badge-engine/internal/repository"
)

// Snapshot is a read-only view of a user's accumulated activity,
// assembled per evaluation pass and discarded afterwards. The
// role-specific sub-structs are populated only for users of the
// matching role; predicates must treat a nil pointer as no activity.
type Snapshot struct {
	UserID               uint
	Role                 string
	SubmittedProjects    int
	DistinctTeams        int
	RegisteredHackathons int
	EarlyRegistrations   int
	Wins                 int
	CurrentStreak        int

	Organizer *repository.OrganizerStats
	Judge     *repository.JudgeStats
	Mentor    *repository.MentorStats
}

// loadSnapshot assembles the activity snapshot for a user. Participant
// facts are loaded for every role; organizer, judge and mentor activity
// is queried lazily to avoid wasted cross-table joins.
func (s *Service) loadSnapshot(user *models.User) (*Snapshot, error) {
	snap := &Snapshot{
		UserID:        user.ID,
		Role:          user.Role,
		CurrentStreak: user.CurrentStreak,
	}

	var err error
	if snap.SubmittedProjects, err = s.activity.CountSubmittedProjects(user.ID); err != nil {
		return nil, fmt.Errorf("failed to load project count: %w", err)
	}
	if snap.DistinctTeams, err = s.activity.CountDistinctTeams(user.ID); err != nil {
		return nil, fmt.Errorf("failed to load team count: %w", err)
	}
	if snap.RegisteredHackathons, err = s.activity.CountRegistrations(user.ID); err != nil {
		return nil, fmt.Errorf("failed to load registration count: %w", err)
	}
	if snap.EarlyRegistrations, err = s.activity.CountEarlyRegistrations(user.ID); err != nil {
		return nil, fmt.Errorf("failed to load early registration count: %w", err)
	}
	if snap.Wins, err = s.activity.CountWins(user.ID); err != nil {
		return nil, fmt.Errorf("failed to load win count: %w", err)
	}

	switch user.Role {
	case models.RoleOrganizer:
		if snap.Organizer, err = s.activity.GetOrganizerStats(user.ID); err != nil {
			return nil, fmt.Errorf("failed to load organizer stats: %w", err)
		}
	case models.RoleJudge:
		if snap.Judge, err = s.activity.GetJudgeStats(user.ID); err != nil {
			return nil, fmt.Errorf("failed to load judge stats: %w", err)
		}
	case models.RoleMentor:
		if snap.Mentor, err = s.activity.GetMentorStats(user.ID); err != nil {
			return nil, fmt.Errorf("failed to load mentor stats: %w", err)
		}
	}

	return snap, nil
}
