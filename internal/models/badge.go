// Package models defines domain models for the hackathon badge engine.
package models

import (
	"time"
)

// Badge roles. A badge applies to one user role, or to any role.
const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
	RoleJudge       = "judge"
	RoleMentor      = "mentor"
	RoleAny         = "any"
)

// Badge rarities, ordered common < uncommon < rare < epic < legendary.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Rarities lists all rarities in ascending order.
var Rarities = []string{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

// RarityRank returns the ordinal position of a rarity for sorting.
// Unknown rarities sort last.
func RarityRank(rarity string) int {
	for i, r := range Rarities {
		if r == rarity {
			return i
		}
	}
	return len(Rarities)
}

// Badge represents a catalog entry that users can unlock once.
// Type identifies the unlock condition, Role selects which users the
// badge is offered to. Rarity is display-only and never feeds unlock
// decisions.
type Badge struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description         string    `gorm:"type:text" json:"description"`
	Type                string    `gorm:"not null;size:50;index:idx_badges_role_type" json:"type"`
	Role                string    `gorm:"not null;size:20;index:idx_badges_role_type" json:"role"`
	Rarity              string    `gorm:"not null;size:20;default:common" json:"rarity"`
	CriteriaDescription string    `gorm:"type:text" json:"criteria_description"`
	Icon                string    `gorm:"size:50" json:"icon"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// AppliesTo reports whether the badge is offered to users of the given role.
func (b *Badge) AppliesTo(role string) bool {
	return b.Role == RoleAny || b.Role == role
}

// UserBadge represents a badge unlocked by a user. The unique index on
// (user_id, badge_id) enforces at-most-once unlocks; UnlockedAt is set
// at first grant and never updated.
type UserBadge struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BadgeID    uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	Badge      Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}
