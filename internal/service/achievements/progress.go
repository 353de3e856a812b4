package achievements

import (
	"sort"

	"github.com/hackboard/badge-engine/internal/models"
)

// RarityProgress is the unlocked/total split for one rarity tier.
type RarityProgress struct {
	Rarity   string `json:"rarity"`
	Unlocked int    `json:"unlocked"`
	Total    int    `json:"total"`
}

// Progress aggregates a user's unlock state for display.
type Progress struct {
	UnlockedCount   int              `json:"unlocked_count"`
	TotalCount      int              `json:"total_count"`
	Percentage      float64          `json:"percentage"`
	RarityBreakdown []RarityProgress `json:"rarity_breakdown"`
}

// ComputeProgress derives aggregate stats from a user's badge set and
// the full catalog. Pure; badges referencing definitions absent from
// the catalog are ignored. An empty catalog yields 0%.
func ComputeProgress(userBadges []models.UserBadge, catalog []models.Badge) *Progress {
	unlocked := make(map[uint]bool, len(userBadges))
	for _, ub := range userBadges {
		unlocked[ub.BadgeID] = true
	}

	progress := &Progress{TotalCount: len(catalog)}
	byRarity := make(map[string]*RarityProgress)

	for _, badge := range catalog {
		rp, ok := byRarity[badge.Rarity]
		if !ok {
			rp = &RarityProgress{Rarity: badge.Rarity}
			byRarity[badge.Rarity] = rp
		}
		rp.Total++
		if unlocked[badge.ID] {
			rp.Unlocked++
			progress.UnlockedCount++
		}
	}

	if progress.TotalCount > 0 {
		progress.Percentage = float64(progress.UnlockedCount) / float64(progress.TotalCount) * 100
	}

	progress.RarityBreakdown = make([]RarityProgress, 0, len(byRarity))
	for _, rp := range byRarity {
		progress.RarityBreakdown = append(progress.RarityBreakdown, *rp)
	}
	sort.Slice(progress.RarityBreakdown, func(i, j int) bool {
		return models.RarityRank(progress.RarityBreakdown[i].Rarity) < models.RarityRank(progress.RarityBreakdown[j].Rarity)
	})

	return progress
}
