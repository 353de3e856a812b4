// Package catalog loads the badge catalog from a YAML file and seeds
// it into the database at startup.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hackboard/badge-engine/internal/models"
	"github.com/hackboard/badge-engine/internal/service/achievements"
	"github.com/hackboard/badge-engine/pkg/logger"
)

// BadgeRepository interface for catalog seeding operations.
type BadgeRepository interface {
	GetByName(name string) (*models.Badge, error)
	Create(badge *models.Badge) error
	Update(badge *models.Badge) error
}

// Entry is one badge definition in the catalog file.
type Entry struct {
	Name                string `yaml:"name"`
	Description         string `yaml:"description"`
	Type                string `yaml:"type"`
	Role                string `yaml:"role"`
	Rarity              string `yaml:"rarity"`
	CriteriaDescription string `yaml:"criteria_description"`
	Icon                string `yaml:"icon"`
}

// File is the top-level structure of the catalog YAML file.
type File struct {
	Badges []Entry `yaml:"badges"`
}

// Load parses a catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for i, entry := range file.Badges {
		if entry.Name == "" || entry.Type == "" || entry.Role == "" {
			return nil, fmt.Errorf("catalog entry %d: name, type and role are required", i)
		}
	}

	return &file, nil
}

// Seed upserts catalog entries by name. Existing badges are updated in
// place so renames of descriptions or rarity tweaks take effect without
// touching unlock history. Entries whose (role, type) has no rule are
// seeded anyway but flagged, since they can never unlock.
func Seed(file *File, repo BadgeRepository, rules *achievements.Ruleset, log *logger.Logger) error {
	created, updated := 0, 0

	for _, entry := range file.Badges {
		if !rules.Knows(entry.Role, entry.Type) {
			log.Warn().
				Str("badge", entry.Name).
				Str("role", entry.Role).
				Str("type", entry.Type).
				Msg("Catalog entry has no unlock rule and will never unlock")
		}

		existing, err := repo.GetByName(entry.Name)
		if err != nil && !errors.Is(err, models.ErrBadgeNotFound) {
			return fmt.Errorf("failed to look up badge %q: %w", entry.Name, err)
		}

		if existing == nil {
			badge := &models.Badge{
				Name:                entry.Name,
				Description:         entry.Description,
				Type:                entry.Type,
				Role:                entry.Role,
				Rarity:              entry.Rarity,
				CriteriaDescription: entry.CriteriaDescription,
				Icon:                entry.Icon,
			}
			if badge.Rarity == "" {
				badge.Rarity = models.RarityCommon
			}
			if err := repo.Create(badge); err != nil {
				return fmt.Errorf("failed to create badge %q: %w", entry.Name, err)
			}
			created++
			continue
		}

		existing.Description = entry.Description
		existing.Type = entry.Type
		existing.Role = entry.Role
		existing.CriteriaDescription = entry.CriteriaDescription
		existing.Icon = entry.Icon
		if entry.Rarity != "" {
			existing.Rarity = entry.Rarity
		}
		if err := repo.Update(existing); err != nil {
			return fmt.Errorf("failed to update badge %q: %w", entry.Name, err)
		}
		updated++
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("total", len(file.Badges)).
		Msg("Badge catalog seeded")

	return nil
}
