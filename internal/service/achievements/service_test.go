package achievements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hackboard/badge-engine/internal/models"
	"github.com/hackboard/badge-engine/internal/repository"
	"github.com/hackboard/badge-engine/test/mocks"
)

// mockBadgeRepo is an in-memory BadgeRepository. AwardBadges mirrors the
// real repository's conflict handling: a badge already held is skipped,
// never duplicated.
type mockBadgeRepo struct {
	badges      []models.Badge
	userBadges  map[uint][]models.UserBadge
	awardErrs   []error
	awardCalls  int
	removeCalls [][]uint
	getAllErr   error
}

func newMockBadgeRepo(badges ...models.Badge) *mockBadgeRepo {
	return &mockBadgeRepo{
		badges:     badges,
		userBadges: make(map[uint][]models.UserBadge),
	}
}

func (m *mockBadgeRepo) GetAll() ([]models.Badge, error) {
	if m.getAllErr != nil {
		return nil, m.getAllErr
	}
	return m.badges, nil
}

func (m *mockBadgeRepo) GetByID(id uint) (*models.Badge, error) {
	for i := range m.badges {
		if m.badges[i].ID == id {
			return &m.badges[i], nil
		}
	}
	return nil, models.ErrBadgeNotFound
}

func (m *mockBadgeRepo) GetUserBadges(userID uint) ([]models.UserBadge, error) {
	return m.userBadges[userID], nil
}

func (m *mockBadgeRepo) AwardBadges(userID uint, badgeIDs []uint, unlockedAt time.Time) error {
	m.awardCalls++
	if len(m.awardErrs) > 0 {
		err := m.awardErrs[0]
		m.awardErrs = m.awardErrs[1:]
		if err != nil {
			return err
		}
	}

	held := make(map[uint]bool)
	for _, ub := range m.userBadges[userID] {
		held[ub.BadgeID] = true
	}
	for _, id := range badgeIDs {
		if held[id] {
			continue
		}
		m.userBadges[userID] = append(m.userBadges[userID], models.UserBadge{
			UserID:     userID,
			BadgeID:    id,
			UnlockedAt: unlockedAt,
		})
	}
	return nil
}

func (m *mockBadgeRepo) RemoveUserBadges(userID uint, badgeIDs []uint) error {
	m.removeCalls = append(m.removeCalls, badgeIDs)
	remove := make(map[uint]bool, len(badgeIDs))
	for _, id := range badgeIDs {
		remove[id] = true
	}
	kept := m.userBadges[userID][:0]
	for _, ub := range m.userBadges[userID] {
		if !remove[ub.BadgeID] {
			kept = append(kept, ub)
		}
	}
	m.userBadges[userID] = kept
	return nil
}

func (m *mockBadgeRepo) GetBadgeHoldersCount(badgeID uint) (int64, error) {
	var count int64
	for _, ubs := range m.userBadges {
		for _, ub := range ubs {
			if ub.BadgeID == badgeID {
				count++
			}
		}
	}
	return count, nil
}

type mockUserRepo struct {
	users map[uint]*models.User
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) GetByID(id uint) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepo) List(role string) ([]models.User, error) {
	var users []models.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			users = append(users, *u)
		}
	}
	return users, nil
}

// mockActivity returns fixed activity facts.
type mockActivity struct {
	projects           int
	teams              int
	registrations      int
	earlyRegistrations int
	wins               int
	organizer          repository.OrganizerStats
	judge              repository.JudgeStats
	mentor             repository.MentorStats
	err                error
}

func (m *mockActivity) CountSubmittedProjects(userID uint) (int, error) {
	return m.projects, m.err
}

func (m *mockActivity) CountDistinctTeams(userID uint) (int, error) {
	return m.teams, m.err
}

func (m *mockActivity) CountRegistrations(userID uint) (int, error) {
	return m.registrations, m.err
}

func (m *mockActivity) CountEarlyRegistrations(userID uint) (int, error) {
	return m.earlyRegistrations, m.err
}

func (m *mockActivity) CountWins(userID uint) (int, error) {
	return m.wins, m.err
}

func (m *mockActivity) GetOrganizerStats(userID uint) (*repository.OrganizerStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	stats := m.organizer
	return &stats, nil
}

func (m *mockActivity) GetJudgeStats(userID uint) (*repository.JudgeStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	stats := m.judge
	return &stats, nil
}

func (m *mockActivity) GetMentorStats(userID uint) (*repository.MentorStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	stats := m.mentor
	return &stats, nil
}

func newTestService(badgeRepo *mockBadgeRepo, userRepo *mockUserRepo, activity *mockActivity) *Service {
	debouncer := NewDebouncer(mocks.NewMockCache(), 30*time.Second, testLogger())
	return NewServiceWithInterfaces(badgeRepo, userRepo, activity, debouncer, testLogger())
}

func participantCatalog() []models.Badge {
	return []models.Badge{
		{ID: 1, Name: "Welcome Aboard", Role: models.RoleAny, Type: "member", Rarity: models.RarityCommon},
		{ID: 2, Name: "First Submission", Role: models.RoleParticipant, Type: "first-submission", Rarity: models.RarityCommon},
		{ID: 3, Name: "Active Participant", Role: models.RoleParticipant, Type: "active-participant", Rarity: models.RarityUncommon},
		{ID: 4, Name: "First Win", Role: models.RoleParticipant, Type: "first-win", Rarity: models.RarityRare},
	}
}

func TestRunUnlockPassGrantsNewBadges(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})
	activity := &mockActivity{projects: 1}

	svc := newTestService(badgeRepo, userRepo, activity)

	delta, err := svc.RunUnlockPass(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("RunUnlockPass returned error: %v", err)
	}

	// Member badge and first-submission unlock; active-participant and
	// first-win thresholds are not met.
	if len(delta.Badges) != 2 {
		t.Fatalf("granted %d badges, want 2", len(delta.Badges))
	}
	names := map[string]bool{}
	for _, b := range delta.Badges {
		names[b.Name] = true
	}
	if !names["Welcome Aboard"] || !names["First Submission"] {
		t.Errorf("granted %v, want Welcome Aboard and First Submission", names)
	}
	if delta.UnlockedAt.IsZero() {
		t.Error("UnlockedAt should be set for a non-empty delta")
	}
	if len(badgeRepo.userBadges[1]) != 2 {
		t.Errorf("persisted %d badges, want 2", len(badgeRepo.userBadges[1]))
	}
}

func TestRunUnlockPassIsIdempotent(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})
	activity := &mockActivity{projects: 1}

	svc := newTestService(badgeRepo, userRepo, activity)
	ctx := context.Background()

	first, err := svc.RunUnlockPass(ctx, 1, true)
	if err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}
	if len(first.Badges) != 2 {
		t.Fatalf("first pass granted %d badges, want 2", len(first.Badges))
	}

	second, err := svc.RunUnlockPass(ctx, 1, true)
	if err != nil {
		t.Fatalf("second pass returned error: %v", err)
	}
	if !second.Empty() {
		t.Errorf("second pass granted %d badges, want 0", len(second.Badges))
	}
	if len(badgeRepo.userBadges[1]) != 2 {
		t.Errorf("user holds %d badges after two passes, want 2", len(badgeRepo.userBadges[1]))
	}
}

func TestRunUnlockPassDebounceSuppression(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})
	activity := &mockActivity{}

	svc := newTestService(badgeRepo, userRepo, activity)
	ctx := context.Background()

	// First pass consumes the window without unlocking anything new.
	if _, err := svc.RunUnlockPass(ctx, 1, false); err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}

	// User now qualifies for first-submission, but the window suppresses
	// the second unforced pass.
	activity.projects = 1
	delta, err := svc.RunUnlockPass(ctx, 1, false)
	if err != nil {
		t.Fatalf("suppressed pass returned error: %v", err)
	}
	if !delta.Empty() {
		t.Errorf("suppressed pass granted %d badges, want 0", len(delta.Badges))
	}

	// A forced pass bypasses the window.
	forced, err := svc.RunUnlockPass(ctx, 1, true)
	if err != nil {
		t.Fatalf("forced pass returned error: %v", err)
	}
	if forced.Empty() {
		t.Error("forced pass should bypass the debounce window and grant the badge")
	}
}

func TestRunUnlockPassUnknownUser(t *testing.T) {
	svc := newTestService(newMockBadgeRepo(), newMockUserRepo(), &mockActivity{})

	delta, err := svc.RunUnlockPass(context.Background(), 42, true)
	if !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
	if !delta.Empty() {
		t.Error("delta should be empty for an unknown user")
	}
}

func TestRunUnlockPassRoleFiltering(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "judy", Role: models.RoleJudge})
	// Activity that would satisfy every participant badge.
	activity := &mockActivity{projects: 20, registrations: 20, wins: 5}

	svc := newTestService(badgeRepo, userRepo, activity)

	delta, err := svc.RunUnlockPass(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("RunUnlockPass returned error: %v", err)
	}

	// Only the role-agnostic member badge applies to a judge.
	if len(delta.Badges) != 1 || delta.Badges[0].Name != "Welcome Aboard" {
		t.Errorf("granted %v, want only Welcome Aboard", delta.Badges)
	}
}

func TestRunUnlockPassUnknownTypeNeverGranted(t *testing.T) {
	badgeRepo := newMockBadgeRepo(
		models.Badge{ID: 1, Name: "Mystery", Role: models.RoleParticipant, Type: "seasonal-2025"},
	)
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})
	activity := &mockActivity{projects: 100, registrations: 100, wins: 100}

	svc := newTestService(badgeRepo, userRepo, activity)

	delta, err := svc.RunUnlockPass(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("RunUnlockPass returned error: %v", err)
	}
	if !delta.Empty() {
		t.Errorf("granted %v for a badge type with no rule, want nothing", delta.Badges)
	}
}

func TestRunUnlockPassOrganizerTripleUnlock(t *testing.T) {
	badgeRepo := newMockBadgeRepo(
		models.Badge{ID: 1, Name: "Event Creator", Role: models.RoleOrganizer, Type: "event-creator", Rarity: models.RarityCommon},
		models.Badge{ID: 2, Name: "Innovation Catalyst", Role: models.RoleOrganizer, Type: "innovation-catalyst", Rarity: models.RarityRare},
		models.Badge{ID: 3, Name: "Hackathon Legend", Role: models.RoleOrganizer, Type: "hackathon-legend", Rarity: models.RarityLegendary},
	)
	userRepo := newMockUserRepo(&models.User{ID: 7, Username: "org", Role: models.RoleOrganizer})
	activity := &mockActivity{
		organizer: repository.OrganizerStats{Hackathons: 10, TotalParticipants: 1200, MaxParticipants: 80},
	}

	svc := newTestService(badgeRepo, userRepo, activity)

	delta, err := svc.RunUnlockPass(context.Background(), 7, true)
	if err != nil {
		t.Fatalf("RunUnlockPass returned error: %v", err)
	}
	if len(delta.Badges) != 3 {
		t.Fatalf("granted %d badges, want all 3 organizer badges in one pass", len(delta.Badges))
	}
	if badgeRepo.awardCalls != 1 {
		t.Errorf("award calls = %d, want a single batched write", badgeRepo.awardCalls)
	}
}

func TestRunUnlockPassPrunesDanglingBadges(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	badgeRepo.userBadges[1] = []models.UserBadge{
		{UserID: 1, BadgeID: 1, UnlockedAt: time.Now()},
		{UserID: 1, BadgeID: 99, UnlockedAt: time.Now()}, // removed from catalog
	}
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})

	svc := newTestService(badgeRepo, userRepo, &mockActivity{})

	if _, err := svc.RunUnlockPass(context.Background(), 1, true); err != nil {
		t.Fatalf("RunUnlockPass returned error: %v", err)
	}

	if len(badgeRepo.removeCalls) != 1 || len(badgeRepo.removeCalls[0]) != 1 || badgeRepo.removeCalls[0][0] != 99 {
		t.Errorf("removeCalls = %v, want a single prune of badge 99", badgeRepo.removeCalls)
	}
	for _, ub := range badgeRepo.userBadges[1] {
		if ub.BadgeID == 99 {
			t.Error("dangling badge 99 still held after pass")
		}
	}
}

func TestRunUnlockPassRetriesPersistenceOnce(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	badgeRepo.awardErrs = []error{errors.New("deadlock detected")}
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})
	activity := &mockActivity{projects: 1}

	svc := newTestService(badgeRepo, userRepo, activity)

	delta, err := svc.RunUnlockPass(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("RunUnlockPass returned error: %v", err)
	}
	if badgeRepo.awardCalls != 2 {
		t.Errorf("award calls = %d, want 2 (initial attempt plus one retry)", badgeRepo.awardCalls)
	}
	if delta.Empty() {
		t.Error("delta should contain badges after a successful retry")
	}
}

func TestRunUnlockPassAbandonsAfterRetryFails(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	badgeRepo.awardErrs = []error{errors.New("db down"), errors.New("db down")}
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})
	activity := &mockActivity{projects: 1}

	svc := newTestService(badgeRepo, userRepo, activity)

	delta, err := svc.RunUnlockPass(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("RunUnlockPass should swallow persistence failures, got: %v", err)
	}
	if !delta.Empty() {
		t.Error("delta should be empty when persistence fails twice")
	}
	if badgeRepo.awardCalls != 2 {
		t.Errorf("award calls = %d, want 2", badgeRepo.awardCalls)
	}
	if len(badgeRepo.userBadges[1]) != 0 {
		t.Errorf("user holds %d badges, want 0 after abandoned pass", len(badgeRepo.userBadges[1]))
	}
}

func TestRunUnlockPassSwallowsReadFailures(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	badgeRepo.getAllErr = errors.New("db down")
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})

	svc := newTestService(badgeRepo, userRepo, &mockActivity{})

	delta, err := svc.RunUnlockPass(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("catalog read failure should degrade to an empty delta, got: %v", err)
	}
	if !delta.Empty() {
		t.Error("delta should be empty when the catalog cannot be read")
	}
}

func TestTriggerUnlockPassNeverFails(t *testing.T) {
	svc := newTestService(newMockBadgeRepo(), newMockUserRepo(), &mockActivity{})

	delta := svc.TriggerUnlockPass(context.Background(), 42)
	if delta == nil || !delta.Empty() {
		t.Error("trigger for an unknown user should return an empty delta")
	}
}

func TestGetUserBadgeStatuses(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	unlockedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	badgeRepo.userBadges[1] = []models.UserBadge{
		{UserID: 1, BadgeID: 2, UnlockedAt: unlockedAt},
	}
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})

	svc := newTestService(badgeRepo, userRepo, &mockActivity{})

	statuses, err := svc.GetUserBadgeStatuses(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetUserBadgeStatuses returned error: %v", err)
	}
	if len(statuses) != 4 {
		t.Fatalf("got %d statuses, want one per catalog badge", len(statuses))
	}

	for _, s := range statuses {
		if s.Badge.ID == 2 {
			if !s.Unlocked || s.UnlockedAt == nil || !s.UnlockedAt.Equal(unlockedAt) {
				t.Errorf("badge 2 status = %+v, want unlocked at %v", s, unlockedAt)
			}
		} else if s.Unlocked {
			t.Errorf("badge %d reported unlocked, want locked", s.Badge.ID)
		}
	}
}

func TestGetUserBadgeStatusesUnknownUser(t *testing.T) {
	svc := newTestService(newMockBadgeRepo(), newMockUserRepo(), &mockActivity{})

	if _, err := svc.GetUserBadgeStatuses(context.Background(), 42); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestGetProgress(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	badgeRepo.userBadges[1] = []models.UserBadge{
		{UserID: 1, BadgeID: 1, UnlockedAt: time.Now()},
		{UserID: 1, BadgeID: 2, UnlockedAt: time.Now()},
	}
	userRepo := newMockUserRepo(&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant})

	svc := newTestService(badgeRepo, userRepo, &mockActivity{})

	progress, err := svc.GetProgress(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetProgress returned error: %v", err)
	}
	if progress.UnlockedCount != 2 || progress.TotalCount != 4 {
		t.Errorf("progress = %d/%d, want 2/4", progress.UnlockedCount, progress.TotalCount)
	}
	if progress.Percentage != 50 {
		t.Errorf("percentage = %f, want 50", progress.Percentage)
	}
}

func TestEvaluateAll(t *testing.T) {
	badgeRepo := newMockBadgeRepo(participantCatalog()...)
	userRepo := newMockUserRepo(
		&models.User{ID: 1, Username: "ada", Role: models.RoleParticipant},
		&models.User{ID: 2, Username: "judy", Role: models.RoleJudge},
	)
	activity := &mockActivity{projects: 1}

	svc := newTestService(badgeRepo, userRepo, activity)

	granted, err := svc.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("EvaluateAll returned error: %v", err)
	}
	// Participant earns member plus first-submission, judge earns member.
	if granted != 3 {
		t.Errorf("granted = %d, want 3", granted)
	}
}
