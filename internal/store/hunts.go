package store

import (
	"fmt"
	"time"

	"github.com/pwolcott/huntmaster/internal/models"
	"gorm.io/gorm/clause"
)

// GetOrCreateHunt fetches the hunt with the given name in the guild, creating
// it with StartTime=now if absent. Name uniqueness is enforced per guild by
// the database.
func (s *Store) GetOrCreateHunt(guildID, name string) (*models.Hunt, error) {
	now := time.Now().UTC()
	h := models.Hunt{GuildID: guildID, Name: &name, StartTime: &now}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&h)
	if res.Error != nil {
		return nil, fmt.Errorf("store: create hunt %s/%s: %w", guildID, name, res.Error)
	}
	return s.HuntByName(guildID, name)
}

// CreateHunt inserts a hunt row as-is. Used for ownerless hunts created
// during round inheritance, which have no name to key on.
func (s *Store) CreateHunt(h *models.Hunt) error {
	if err := s.db.Create(h).Error; err != nil {
		return fmt.Errorf("store: create hunt for guild %s: %w", h.GuildID, err)
	}
	return nil
}

// HuntByName fetches a hunt by its (guild, name) natural key. The lookup is
// exact and case-sensitive; ErrNotFound if absent.
func (s *Store) HuntByName(guildID, name string) (*models.Hunt, error) {
	return first(s.db.Where("guild_id = ? AND name = ?", guildID, name), &models.Hunt{})
}

// Hunt fetches a hunt by row ID.
func (s *Store) Hunt(id uint) (*models.Hunt, error) {
	return first(s.db.Where("id = ?", id), &models.Hunt{})
}

// ActiveHunts returns all hunts in the guild with no end time.
func (s *Store) ActiveHunts(guildID string) ([]models.Hunt, error) {
	var hunts []models.Hunt
	if err := s.db.Where("guild_id = ? AND end_time IS NULL", guildID).Find(&hunts).Error; err != nil {
		return nil, fmt.Errorf("store: active hunts for %s: %w", guildID, err)
	}
	return hunts, nil
}

// SaveHunt persists all fields of the hunt row.
func (s *Store) SaveHunt(h *models.Hunt) error {
	if err := s.db.Save(h).Error; err != nil {
		return fmt.Errorf("store: save hunt %d: %w", h.ID, err)
	}
	return nil
}

// EndHunt marks a hunt as no longer active.
func (s *Store) EndHunt(h *models.Hunt, when time.Time) error {
	if err := s.db.Model(h).Update("end_time", when).Error; err != nil {
		return fmt.Errorf("store: end hunt %d: %w", h.ID, err)
	}
	return nil
}
