package achievements

import (
	"context"
	"errors"
	"time"

	prommetrics "github.com/hackboard/badge-engine/internal/metrics"
	"github.com/hackboard/badge-engine/internal/models"
	"github.com/hackboard/badge-engine/internal/repository"
	"github.com/hackboard/badge-engine/pkg/logger"
)

// BadgeRepository interface for badge catalog and user badge operations.
type BadgeRepository interface {
	GetAll() ([]models.Badge, error)
	GetByID(id uint) (*models.Badge, error)
	GetUserBadges(userID uint) ([]models.UserBadge, error)
	AwardBadges(userID uint, badgeIDs []uint, unlockedAt time.Time) error
	RemoveUserBadges(userID uint, badgeIDs []uint) error
	GetBadgeHoldersCount(badgeID uint) (int64, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	List(role string) ([]models.User, error)
}

// ActivityReader interface for the per-user activity facts the rules consume.
type ActivityReader interface {
	CountSubmittedProjects(userID uint) (int, error)
	CountDistinctTeams(userID uint) (int, error)
	CountRegistrations(userID uint) (int, error)
	CountEarlyRegistrations(userID uint) (int, error)
	CountWins(userID uint) (int, error)
	GetOrganizerStats(userID uint) (*repository.OrganizerStats, error)
	GetJudgeStats(userID uint) (*repository.JudgeStats, error)
	GetMentorStats(userID uint) (*repository.MentorStats, error)
}

// UnlockDelta is the result of one unlock pass: the badge definitions
// newly granted in that pass. Empty on no-op and suppressed runs.
type UnlockDelta struct {
	UserID     uint           `json:"user_id"`
	Badges     []models.Badge `json:"badges"`
	UnlockedAt time.Time      `json:"unlocked_at"`
}

// Empty reports whether the pass granted nothing.
func (d *UnlockDelta) Empty() bool {
	return len(d.Badges) == 0
}

// BadgeStatus merges a catalog entry with a user's unlock state.
type BadgeStatus struct {
	Badge      models.Badge `json:"badge"`
	Unlocked   bool         `json:"unlocked"`
	UnlockedAt *time.Time   `json:"unlocked_at,omitempty"`
}

// Service is the unlock engine entry point.
type Service struct {
	badgeRepo BadgeRepository
	userRepo  UserRepository
	activity  ActivityReader
	rules     *Ruleset
	debouncer *Debouncer
	log       *logger.Logger
}

// NewService creates a new achievement service.
func NewService(
	badgeRepo *repository.BadgeRepository,
	userRepo *repository.UserRepository,
	activityRepo *repository.ActivityRepository,
	debouncer *Debouncer,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(badgeRepo, userRepo, activityRepo, debouncer, log)
}

// NewServiceWithInterfaces creates a new achievement service with
// interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	badgeRepo BadgeRepository,
	userRepo UserRepository,
	activity ActivityReader,
	debouncer *Debouncer,
	log *logger.Logger,
) *Service {
	return &Service{
		badgeRepo: badgeRepo,
		userRepo:  userRepo,
		activity:  activity,
		rules:     NewRuleset(),
		debouncer: debouncer,
		log:       log,
	}
}

// RunUnlockPass evaluates the full catalog against the user's current
// activity and grants any newly satisfied badges.
//
// Failure semantics: models.ErrUserNotFound is returned to the caller
// (the explicit check endpoint surfaces it as 404); every other
// read, evaluate or persist failure is logged and degrades the pass to
// an empty delta, because badge unlocking must never block the primary
// action that triggered it.
func (s *Service) RunUnlockPass(ctx context.Context, userID uint, force bool) (*UnlockDelta, error) {
	delta := &UnlockDelta{UserID: userID, Badges: []models.Badge{}}
	start := time.Now()

	if !force && !s.debouncer.ShouldRun(ctx, userID) {
		s.log.Debug().Uint("user_id", userID).Msg("Unlock pass suppressed by debounce window")
		prommetrics.RecordUnlockPass("suppressed")
		return delta, nil
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			prommetrics.RecordUnlockPass("not_found")
			return delta, err
		}
		s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load user for unlock pass")
		prommetrics.RecordUnlockPass("failed")
		return delta, nil
	}

	catalog, err := s.badgeRepo.GetAll()
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load badge catalog")
		prommetrics.RecordUnlockPass("failed")
		return delta, nil
	}

	owned, err := s.loadOwnedBadges(user.ID, catalog)
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load user badges")
		prommetrics.RecordUnlockPass("failed")
		return delta, nil
	}

	snapshot, err := s.loadSnapshot(user)
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load activity snapshot")
		prommetrics.RecordUnlockPass("failed")
		return delta, nil
	}

	var unlocked []models.Badge
	for _, badge := range catalog {
		if owned[badge.ID] {
			continue
		}
		if !badge.AppliesTo(user.Role) {
			continue
		}
		if s.rules.Evaluate(&badge, snapshot) {
			unlocked = append(unlocked, badge)
		}
	}

	if len(unlocked) == 0 {
		prommetrics.RecordUnlockPass("completed")
		prommetrics.ObserveUnlockPassDuration(time.Since(start).Seconds())
		return delta, nil
	}

	unlockedAt := time.Now().UTC()
	if err := s.persistUnlocks(user.ID, unlocked, unlockedAt); err != nil {
		s.log.Error().
			Err(err).
			Uint("user_id", userID).
			Int("badge_count", len(unlocked)).
			Msg("Abandoning unlock pass, could not persist badges")
		prommetrics.RecordUnlockPass("failed")
		return delta, nil
	}

	for _, badge := range unlocked {
		prommetrics.RecordBadgeUnlocked(badge.Name, badge.Role)
		if count, err := s.badgeRepo.GetBadgeHoldersCount(badge.ID); err == nil {
			prommetrics.SetBadgeHolders(badge.Name, int(count))
		}
		s.log.Info().
			Uint("user_id", userID).
			Str("username", user.Username).
			Str("badge", badge.Name).
			Str("rarity", badge.Rarity).
			Msg("Badge unlocked")
	}

	delta.Badges = unlocked
	delta.UnlockedAt = unlockedAt
	prommetrics.RecordUnlockPass("completed")
	prommetrics.ObserveUnlockPassDuration(time.Since(start).Seconds())
	return delta, nil
}

// TriggerUnlockPass is the fire-and-forget entry point for activity
// triggers (login, submission, streak update). It swallows every error,
// including a missing user, and returns the delta for optional
// forwarding to a notification surface.
func (s *Service) TriggerUnlockPass(ctx context.Context, userID uint) *UnlockDelta {
	delta, err := s.RunUnlockPass(ctx, userID, false)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Unlock pass skipped")
	}
	return delta
}

// persistUnlocks writes all newly granted badges in a single
// all-or-nothing update, retrying once on failure.
func (s *Service) persistUnlocks(userID uint, badges []models.Badge, unlockedAt time.Time) error {
	badgeIDs := make([]uint, 0, len(badges))
	for _, b := range badges {
		badgeIDs = append(badgeIDs, b.ID)
	}

	err := s.badgeRepo.AwardBadges(userID, badgeIDs, unlockedAt)
	if err == nil {
		return nil
	}

	s.log.Warn().
		Err(err).
		Uint("user_id", userID).
		Msg("Badge persistence failed, retrying once")

	return s.badgeRepo.AwardBadges(userID, badgeIDs, unlockedAt)
}

// loadOwnedBadges returns the set of badge IDs the user holds, pruning
// entries that reference a badge definition no longer in the catalog.
func (s *Service) loadOwnedBadges(userID uint, catalog []models.Badge) (map[uint]bool, error) {
	userBadges, err := s.badgeRepo.GetUserBadges(userID)
	if err != nil {
		return nil, err
	}

	known := make(map[uint]bool, len(catalog))
	for _, b := range catalog {
		known[b.ID] = true
	}

	owned := make(map[uint]bool, len(userBadges))
	var dangling []uint
	for _, ub := range userBadges {
		if !known[ub.BadgeID] {
			dangling = append(dangling, ub.BadgeID)
			continue
		}
		owned[ub.BadgeID] = true
	}

	if len(dangling) > 0 {
		// Pruning is opportunistic repair; a failure here must not
		// abort the pass.
		if err := s.badgeRepo.RemoveUserBadges(userID, dangling); err != nil {
			s.log.Warn().
				Err(err).
				Uint("user_id", userID).
				Int("dangling", len(dangling)).
				Msg("Failed to prune dangling badge references")
		} else {
			prommetrics.RecordPrunedBadgeRefs(len(dangling))
			s.log.Info().
				Uint("user_id", userID).
				Int("pruned", len(dangling)).
				Msg("Pruned dangling badge references")
		}
	}

	return owned, nil
}

// GetUserBadgeStatuses merges the catalog with the user's unlock state.
// Dangling references are pruned as a side effect of the read.
func (s *Service) GetUserBadgeStatuses(ctx context.Context, userID uint) ([]BadgeStatus, error) {
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return nil, err
	}

	catalog, err := s.badgeRepo.GetAll()
	if err != nil {
		return nil, err
	}

	if _, err := s.loadOwnedBadges(userID, catalog); err != nil {
		return nil, err
	}

	userBadges, err := s.badgeRepo.GetUserBadges(userID)
	if err != nil {
		return nil, err
	}

	unlockedAt := make(map[uint]time.Time, len(userBadges))
	for _, ub := range userBadges {
		unlockedAt[ub.BadgeID] = ub.UnlockedAt
	}

	statuses := make([]BadgeStatus, 0, len(catalog))
	for _, badge := range catalog {
		status := BadgeStatus{Badge: badge}
		if at, ok := unlockedAt[badge.ID]; ok {
			status.Unlocked = true
			t := at
			status.UnlockedAt = &t
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// GetProgress computes aggregate unlock stats for a user.
func (s *Service) GetProgress(ctx context.Context, userID uint) (*Progress, error) {
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return nil, err
	}

	catalog, err := s.badgeRepo.GetAll()
	if err != nil {
		return nil, err
	}

	userBadges, err := s.badgeRepo.GetUserBadges(userID)
	if err != nil {
		return nil, err
	}

	return ComputeProgress(userBadges, catalog), nil
}

// GetBadgeCatalog retrieves all badge definitions.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetBadgeCatalog(ctx context.Context) ([]models.Badge, error) {
	return s.badgeRepo.GetAll()
}

// GetBadgeByID retrieves a badge definition by its ID.
//
//nolint:revive // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetBadgeByID(ctx context.Context, badgeID uint) (*models.Badge, error) {
	return s.badgeRepo.GetByID(badgeID)
}

// refreshHolderGauges recomputes the holder-count gauge for every badge
// in the catalog. Inline passes only touch the gauges of badges they
// grant, so the sweep realigns the rest.
func (s *Service) refreshHolderGauges() {
	catalog, err := s.badgeRepo.GetAll()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load catalog for holder gauge refresh")
		return
	}
	for _, badge := range catalog {
		count, err := s.badgeRepo.GetBadgeHoldersCount(badge.ID)
		if err != nil {
			continue
		}
		prommetrics.SetBadgeHolders(badge.Name, int(count))
	}
}

// EvaluateAll runs a forced unlock pass for every user. This is the
// scheduled sweep job; it returns the total number of badges granted.
func (s *Service) EvaluateAll(ctx context.Context) (int, error) {
	s.log.Info().Msg("Starting badge sweep for all users")
	start := time.Now()

	users, err := s.userRepo.List("")
	if err != nil {
		return 0, err
	}

	granted := 0
	for _, user := range users {
		delta, err := s.RunUnlockPass(ctx, user.ID, true)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("Sweep pass failed for user")
			continue
		}
		granted += len(delta.Badges)
	}

	s.refreshHolderGauges()

	s.log.Info().
		Int("users", len(users)).
		Int("badges_granted", granted).
		Dur("duration", time.Since(start)).
		Msg("Badge sweep complete")

	return granted, nil
}
