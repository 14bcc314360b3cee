package store

import (
	"fmt"

	"github.com/pwolcott/huntmaster/internal/models"
	"gorm.io/gorm/clause"
)

// GetOrCreateRound fetches the round for the given category, creating one
// with no hunt linkage if the category is unseen. The created flag reports
// whether this call inserted the row.
func (s *Store) GetOrCreateRound(guildID, categoryID, name string) (*models.Round, bool, error) {
	existing, err := s.RoundByCategory(categoryID)
	if err == nil {
		return existing, false, nil
	}
	if err != ErrNotFound {
		return nil, false, err
	}

	r := models.Round{GuildID: guildID, CategoryID: categoryID, Name: name}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&r)
	if res.Error != nil {
		return nil, false, fmt.Errorf("store: create round %s: %w", categoryID, res.Error)
	}
	round, err := s.RoundByCategory(categoryID)
	if err != nil {
		return nil, false, err
	}
	// RowsAffected is 0 when a concurrent insert won the conflict.
	return round, res.RowsAffected > 0, nil
}

// RoundByCategory fetches a round whose active or archived category matches
// the given ID; ErrNotFound if the category is untracked.
func (s *Store) RoundByCategory(categoryID string) (*models.Round, error) {
	return first(
		s.db.Where("category_id = ? OR solved_category_id = ?", categoryID, categoryID),
		&models.Round{},
	)
}

// Round fetches a round by row ID.
func (s *Store) Round(id uint) (*models.Round, error) {
	return first(s.db.Where("id = ?", id), &models.Round{})
}

// RoundsInHunt returns all rounds attached to the hunt.
func (s *Store) RoundsInHunt(huntID uint) ([]models.Round, error) {
	var rounds []models.Round
	if err := s.db.Where("hunt_id = ?", huntID).Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("store: rounds for hunt %d: %w", huntID, err)
	}
	return rounds, nil
}

// SaveRound persists all fields of the round row.
func (s *Store) SaveRound(r *models.Round) error {
	if err := s.db.Save(r).Error; err != nil {
		return fmt.Errorf("store: save round %d: %w", r.ID, err)
	}
	return nil
}
