package store

import (
	"fmt"

	"github.com/pwolcott/huntmaster/internal/models"
	"gorm.io/gorm/clause"
)

// GetOrCreateGuild fetches the guild row, creating it if absent. Two callers
// racing on the same ID both observe the same row: the insert ignores the
// conflict and the read-after returns the winner.
func (s *Store) GetOrCreateGuild(id string) (*models.Guild, error) {
	g := models.Guild{ID: id}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&g)
	if res.Error != nil {
		return nil, fmt.Errorf("store: create guild %s: %w", id, res.Error)
	}
	return first(s.db.Where("id = ?", id), &models.Guild{})
}

// Guild fetches a guild by ID, ErrNotFound if absent.
func (s *Store) Guild(id string) (*models.Guild, error) {
	return first(s.db.Where("id = ?", id), &models.Guild{})
}

// AllGuilds returns every known guild.
func (s *Store) AllGuilds() ([]models.Guild, error) {
	var guilds []models.Guild
	if err := s.db.Order("id ASC").Find(&guilds).Error; err != nil {
		return nil, fmt.Errorf("store: list guilds: %w", err)
	}
	return guilds, nil
}

// SaveGuild persists all fields of the guild row.
func (s *Store) SaveGuild(g *models.Guild) error {
	if err := s.db.Save(g).Error; err != nil {
		return fmt.Errorf("store: save guild %s: %w", g.ID, err)
	}
	return nil
}
