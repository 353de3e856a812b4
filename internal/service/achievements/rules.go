// Package achievements provides the badge unlock engine: criteria
// evaluation, pass debouncing, orchestration and progress reporting.
package achievements

import (
	"github.com/hackboard/badge-engine/internal/models"
)

// Predicate decides whether an activity snapshot satisfies a badge's
// unlock condition. Predicates are pure and never perform I/O.
type Predicate func(s *Snapshot) bool

type ruleKey struct {
	role string
	typ  string
}

// defaultRules maps (role, type) to its unlock predicate. A badge whose
// pair has no entry here is never unlocked, regardless of snapshot
// contents.
var defaultRules = map[ruleKey]Predicate{
	// Role-agnostic welcome badge.
	{models.RoleAny, "member"}: func(_ *Snapshot) bool { return true },

	// Participant badges.
	{models.RoleParticipant, "first-submission"}: func(s *Snapshot) bool {
		return s.SubmittedProjects >= 1
	},
	{models.RoleParticipant, "early-bird"}: func(s *Snapshot) bool {
		// Requires an explicit registration timestamp within 24h of the
		// hackathon's creation; registrations with no timestamp never count.
		return s.EarlyRegistrations >= 1
	},
	{models.RoleParticipant, "first-win"}: func(s *Snapshot) bool {
		return s.Wins >= 1
	},
	{models.RoleParticipant, "streak-master"}: func(s *Snapshot) bool {
		return s.CurrentStreak >= 7
	},
	{models.RoleParticipant, "team-player"}: func(s *Snapshot) bool {
		return s.DistinctTeams >= 5
	},
	{models.RoleParticipant, "code-wizard"}: func(s *Snapshot) bool {
		return s.SubmittedProjects >= 10
	},
	{models.RoleParticipant, "hackathon-veteran"}: func(s *Snapshot) bool {
		return s.RegisteredHackathons >= 10
	},
	{models.RoleParticipant, "innovation-leader"}: func(s *Snapshot) bool {
		return s.Wins >= 3
	},
	{models.RoleParticipant, "active-participant"}: func(s *Snapshot) bool {
		return s.RegisteredHackathons >= 3
	},

	// Organizer badges.
	{models.RoleOrganizer, "event-creator"}: func(s *Snapshot) bool {
		return s.Organizer != nil && s.Organizer.Hackathons >= 1
	},
	{models.RoleOrganizer, "community-builder"}: func(s *Snapshot) bool {
		return s.Organizer != nil && s.Organizer.MaxParticipants >= 100
	},
	{models.RoleOrganizer, "innovation-catalyst"}: func(s *Snapshot) bool {
		return s.Organizer != nil && s.Organizer.Hackathons >= 5
	},
	{models.RoleOrganizer, "excellence-curator"}: func(s *Snapshot) bool {
		return s.Organizer != nil && s.Organizer.RatedHackathons > 0 && s.Organizer.AvgRating >= 4.5
	},
	{models.RoleOrganizer, "hackathon-legend"}: func(s *Snapshot) bool {
		return s.Organizer != nil && s.Organizer.Hackathons >= 10 && s.Organizer.TotalParticipants >= 1000
	},

	// Judge badges.
	{models.RoleJudge, "fair-evaluator"}: func(s *Snapshot) bool {
		return s.Judge != nil && s.Judge.Submissions >= 1
	},
	{models.RoleJudge, "insightful-reviewer"}: func(s *Snapshot) bool {
		return s.Judge != nil && s.Judge.Submissions >= 50
	},
	{models.RoleJudge, "quality-guardian"}: func(s *Snapshot) bool {
		return s.Judge != nil && s.Judge.Hackathons >= 5
	},
	{models.RoleJudge, "expert-arbiter"}: func(s *Snapshot) bool {
		return s.Judge != nil && s.Judge.Submissions >= 100
	},
	{models.RoleJudge, "judgment-master"}: func(s *Snapshot) bool {
		return s.Judge != nil && s.Judge.Hackathons >= 10
	},

	// Mentor badges.
	{models.RoleMentor, "knowledge-sharer"}: func(s *Snapshot) bool {
		return s.Mentor != nil && s.Mentor.Projects >= 1
	},
	{models.RoleMentor, "team-guide"}: func(s *Snapshot) bool {
		return s.Mentor != nil && s.Mentor.Projects >= 10
	},
	{models.RoleMentor, "skill-developer"}: func(s *Snapshot) bool {
		return s.Mentor != nil && s.Mentor.WinningTeams >= 5
	},
	{models.RoleMentor, "innovation-coach"}: func(s *Snapshot) bool {
		return s.Mentor != nil && s.Mentor.Projects >= 25
	},
	{models.RoleMentor, "mentorship-legend"}: func(s *Snapshot) bool {
		return s.Mentor != nil && s.Mentor.Projects >= 50
	},
}

// Ruleset holds the unlock rule registry, populated once at startup.
type Ruleset struct {
	rules map[ruleKey]Predicate
}

// NewRuleset creates a ruleset with the built-in rules.
func NewRuleset() *Ruleset {
	return &Ruleset{rules: defaultRules}
}

// Evaluate reports whether the snapshot satisfies the badge's unlock
// condition. Unknown (role, type) pairs evaluate to false.
func (r *Ruleset) Evaluate(badge *models.Badge, s *Snapshot) bool {
	pred, ok := r.rules[ruleKey{role: badge.Role, typ: badge.Type}]
	if !ok {
		return false
	}
	return pred(s)
}

// Knows reports whether a rule exists for the (role, type) pair.
// Used by the catalog seeder to warn about unevaluable badges.
func (r *Ruleset) Knows(role, badgeType string) bool {
	_, ok := r.rules[ruleKey{role: role, typ: badgeType}]
	return ok
}
