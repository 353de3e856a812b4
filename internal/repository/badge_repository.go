package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hackboard/badge-engine/internal/models"
)

// BadgeRepository handles badge catalog and user badge operations.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create creates a new badge definition.
func (r *BadgeRepository) Create(badge *models.Badge) error {
	if err := r.db.Create(badge).Error; err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}
	return nil
}

// GetByID retrieves a badge by its ID.
func (r *BadgeRepository) GetByID(id uint) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.First(&badge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBadgeNotFound
		}
		return nil, fmt.Errorf("failed to get badge %d: %w", id, err)
	}
	return &badge, nil
}

// GetByName retrieves a badge by its name.
func (r *BadgeRepository) GetByName(name string) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.Where("name = ?", name).First(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBadgeNotFound
		}
		return nil, fmt.Errorf("failed to get badge %q: %w", name, err)
	}
	return &badge, nil
}

// GetAll retrieves the full badge catalog.
func (r *BadgeRepository) GetAll() ([]models.Badge, error) {
	var badges []models.Badge
	if err := r.db.Order("created_at ASC, id ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

// Update updates an existing badge definition.
func (r *BadgeRepository) Update(badge *models.Badge) error {
	if err := r.db.Save(badge).Error; err != nil {
		return fmt.Errorf("failed to update badge: %w", err)
	}
	return nil
}

// Delete deletes a badge definition by ID. User badge rows referencing
// it become dangling and are pruned on the next read of each user.
func (r *BadgeRepository) Delete(id uint) error {
	if err := r.db.Delete(&models.Badge{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete badge %d: %w", id, err)
	}
	return nil
}

// GetUserBadges retrieves all badges unlocked by a user with badge
// details preloaded, newest first.
func (r *BadgeRepository) GetUserBadges(userID uint) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Badge").
		Order("unlocked_at DESC, id DESC").
		Find(&userBadges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get badges for user %d: %w", userID, err)
	}
	return userBadges, nil
}

// HasUserUnlockedBadge checks if a user has unlocked a specific badge.
func (r *BadgeRepository) HasUserUnlockedBadge(userID, badgeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check badge %d for user %d: %w", badgeID, userID, err)
	}
	return count > 0, nil
}

// AwardBadges grants a set of badges to a user in a single transaction
// with one shared unlock timestamp. Re-awarding an already-present
// badge is a no-op: the unique (user_id, badge_id) index plus
// ON CONFLICT DO NOTHING makes the write an idempotent union, so two
// interleaved unlock passes cannot produce duplicates.
func (r *BadgeRepository) AwardBadges(userID uint, badgeIDs []uint, unlockedAt time.Time) error {
	if len(badgeIDs) == 0 {
		return nil
	}

	rows := make([]models.UserBadge, 0, len(badgeIDs))
	for _, badgeID := range badgeIDs {
		rows = append(rows, models.UserBadge{
			UserID:     userID,
			BadgeID:    badgeID,
			UnlockedAt: unlockedAt,
		})
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to award badges to user %d: %w", userID, err)
	}
	return nil
}

// RemoveUserBadges deletes the given user badge rows. Used to prune
// entries whose badge definition no longer exists.
func (r *BadgeRepository) RemoveUserBadges(userID uint, badgeIDs []uint) error {
	if len(badgeIDs) == 0 {
		return nil
	}
	err := r.db.
		Where("user_id = ? AND badge_id IN ?", userID, badgeIDs).
		Delete(&models.UserBadge{}).Error
	if err != nil {
		return fmt.Errorf("failed to prune badges for user %d: %w", userID, err)
	}
	return nil
}

// GetBadgeHoldersCount returns the number of users who have unlocked a badge.
func (r *BadgeRepository) GetBadgeHoldersCount(badgeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("badge_id = ?", badgeID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count holders of badge %d: %w", badgeID, err)
	}
	return count, nil
}

// GetRecentlyUnlockedBadges retrieves badges unlocked since a point in time.
func (r *BadgeRepository) GetRecentlyUnlockedBadges(since time.Time) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	err := r.db.
		Where("unlocked_at >= ?", since).
		Preload("Badge").
		Preload("User").
		Order("unlocked_at DESC").
		Find(&userBadges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recently unlocked badges: %w", err)
	}
	return userBadges, nil
}
