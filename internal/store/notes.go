package store

import (
	"fmt"
	"time"

	"github.com/pwolcott/huntmaster/internal/models"
)

// AddNote appends an annotation to a puzzle.
func (s *Store) AddNote(puzzleID uint, text, author, jumpURL string) (*models.Note, error) {
	n := models.Note{
		PuzzleID: puzzleID,
		Text:     text,
		Author:   author,
		JumpURL:  jumpURL,
		AddedAt:  time.Now().UTC(),
	}
	if err := s.db.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("store: add note to puzzle %d: %w", puzzleID, err)
	}
	return &n, nil
}

// Notes returns the puzzle's notes in the order they were added. The
// positions in this slice are the indices users reference.
func (s *Store) Notes(puzzleID uint) ([]models.Note, error) {
	var notes []models.Note
	if err := s.db.Where("puzzle_id = ?", puzzleID).Order("added_at ASC, id ASC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("store: notes for puzzle %d: %w", puzzleID, err)
	}
	return notes, nil
}

// DeleteNoteByIndex removes the 1-based nth note of the current ordered
// listing and returns it. The index a caller observed can be stale if
// another caller added or deleted a note in between; that race is a known,
// accepted limitation of the index-based command contract.
func (s *Store) DeleteNoteByIndex(puzzleID uint, index int) (*models.Note, error) {
	notes, err := s.Notes(puzzleID)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(notes) {
		return nil, ErrNotFound
	}
	n := notes[index-1]
	if err := s.DeleteNote(n.ID); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNote removes a note by its stable row ID. Notes are the only entity
// that is physically deleted.
func (s *Store) DeleteNote(id uint) error {
	if err := s.db.Delete(&models.Note{}, id).Error; err != nil {
		return fmt.Errorf("store: delete note %d: %w", id, err)
	}
	return nil
}
