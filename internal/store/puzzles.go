package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/pwolcott/huntmaster/internal/models"
	"gorm.io/gorm/clause"
)

// GetOrCreatePuzzle fetches the puzzle for (guild, channel), creating it in
// the given round if absent. An existing puzzle keeps its original round.
func (s *Store) GetOrCreatePuzzle(guildID, channelID string, roundID uint) (*models.Puzzle, error) {
	p := models.Puzzle{GuildID: guildID, ChannelID: channelID, RoundID: roundID}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
	if res.Error != nil {
		return nil, fmt.Errorf("store: create puzzle %s/%s: %w", guildID, channelID, res.Error)
	}
	return s.Puzzle(guildID, channelID)
}

// Puzzle fetches a puzzle by its (guild, channel) natural key; ErrNotFound
// when the channel is not a tracked puzzle.
func (s *Store) Puzzle(guildID, channelID string) (*models.Puzzle, error) {
	return first(s.db.Where("guild_id = ? AND channel_id = ?", guildID, channelID), &models.Puzzle{})
}

// PuzzlesInRound returns all non-deleted puzzles in the round.
func (s *Store) PuzzlesInRound(roundID uint) ([]models.Puzzle, error) {
	var puzzles []models.Puzzle
	if err := s.db.Where("round_id = ? AND delete_time IS NULL", roundID).Find(&puzzles).Error; err != nil {
		return nil, fmt.Errorf("store: puzzles in round %d: %w", roundID, err)
	}
	return puzzles, nil
}

// AllPuzzles returns every non-deleted puzzle in the guild, ordered by each
// round's earliest start time, then by the puzzle's own start time. Puzzles
// without a start time sort last within their round.
func (s *Store) AllPuzzles(guildID string) ([]models.Puzzle, error) {
	var puzzles []models.Puzzle
	if err := s.db.Where("guild_id = ? AND delete_time IS NULL", guildID).Find(&puzzles).Error; err != nil {
		return nil, fmt.Errorf("store: puzzles for guild %s: %w", guildID, err)
	}
	return SortByRoundStart(puzzles), nil
}

// UpdatePuzzleFields applies a partial update to the puzzle row and refreshes
// the in-memory struct. A map is used so that nil values write NULL. This
// per-row update is the unit of consistency: overlapping concurrent updates
// are last-write-wins per field set.
func (s *Store) UpdatePuzzleFields(p *models.Puzzle, fields map[string]interface{}) error {
	if err := s.db.Model(p).Updates(fields).Error; err != nil {
		return fmt.Errorf("store: update puzzle %d: %w", p.ID, err)
	}
	if err := s.db.Where("id = ?", p.ID).First(p).Error; err != nil {
		return fmt.Errorf("store: reload puzzle %d: %w", p.ID, err)
	}
	return nil
}

// SortByRoundStart orders puzzles by round start then puzzle start.
//
// Rounds are grouped by the earliest puzzle start time within the round, so
// rounds opened earlier in the hunt list first. Grouping is by the
// denormalized round name so display order survives round renames.
func SortByRoundStart(puzzles []models.Puzzle) []models.Puzzle {
	roundStarts := make(map[string]time.Time)
	for _, p := range puzzles {
		if p.StartTime == nil {
			continue
		}
		cur, ok := roundStarts[p.RoundName]
		if !ok || p.StartTime.Before(cur) {
			roundStarts[p.RoundName] = *p.StartTime
		}
	}

	sorted := make([]models.Puzzle, len(puzzles))
	copy(sorted, puzzles)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Rounds with no known start compare as the zero time and sort first.
		ri := roundStarts[sorted[i].RoundName]
		rj := roundStarts[sorted[j].RoundName]
		if !ri.Equal(rj) {
			return ri.Before(rj)
		}
		si, sj := sorted[i].StartTime, sorted[j].StartTime
		switch {
		case si == nil && sj == nil:
			return false
		case si == nil:
			return false // no start time sorts last within the round
		case sj == nil:
			return true
		default:
			return si.Before(*sj)
		}
	})
	return sorted
}
