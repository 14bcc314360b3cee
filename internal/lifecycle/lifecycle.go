// Package lifecycle implements the puzzle status state machine.
//
// The forward path is active → solved → archived; the alternate branch is
// active → deleting → deleted. Unsolve and undelete step back to active, but
// only before the next forward step has fired.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/store"
)

// InvalidTransitionError reports an operation applied to a puzzle whose
// current state does not permit it.
type InvalidTransitionError struct {
	Op     string
	Puzzle string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("lifecycle: cannot %s puzzle %q: %s", e.Op, e.Puzzle, e.Reason)
}

// Machine applies lifecycle transitions through the entity store. The clock
// is injectable for tests.
type Machine struct {
	store *store.Store
	now   func() time.Time
}

// New creates a Machine over the given store.
func New(s *store.Store) *Machine {
	return &Machine{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// NewAt creates a Machine with a fixed clock.
func NewAt(s *store.Store, now func() time.Time) *Machine {
	return &Machine{store: s, now: now}
}

// MarkSolved records a solution. The text is normalized (trimmed,
// upper-cased). Re-solving an already-solved puzzle overwrites the solution
// and the solve time.
func (m *Machine) MarkSolved(p *models.Puzzle, solution string) error {
	if p.ArchiveTime != nil {
		return &InvalidTransitionError{Op: "solve", Puzzle: p.Name, Reason: "already archived"}
	}
	return m.store.UpdatePuzzleFields(p, map[string]interface{}{
		"status":     models.StatusSolved,
		"solution":   strings.ToUpper(strings.TrimSpace(solution)),
		"solve_time": m.now(),
	})
}

// MarkUnsolved reverts an accidental solve. Once the puzzle has been
// archived the solve is final.
func (m *Machine) MarkUnsolved(p *models.Puzzle) error {
	if p.ArchiveTime != nil {
		return &InvalidTransitionError{Op: "unsolve", Puzzle: p.Name, Reason: "already archived"}
	}
	return m.store.UpdatePuzzleFields(p, map[string]interface{}{
		"status":     models.StatusActive,
		"solution":   "",
		"solve_time": nil,
	})
}

// RequestDelete schedules the puzzle for deletion after the grace period.
// Solved puzzles must go through the archive path instead.
func (m *Machine) RequestDelete(p *models.Puzzle) error {
	if p.IsSolved() || p.SolveTime != nil || p.Solution != "" {
		return &InvalidTransitionError{Op: "delete", Puzzle: p.Name, Reason: "puzzle is solved"}
	}
	if p.DeleteTime != nil {
		return &InvalidTransitionError{Op: "delete", Puzzle: p.Name, Reason: "already deleted"}
	}
	return m.store.UpdatePuzzleFields(p, map[string]interface{}{
		"status":         models.StatusDeleting,
		"delete_request": m.now(),
	})
}

// CancelDelete withdraws a pending delete request. Once the delete has been
// finalized there is nothing to cancel.
func (m *Machine) CancelDelete(p *models.Puzzle) error {
	if p.Status != models.StatusDeleting || p.DeleteTime != nil {
		return &InvalidTransitionError{Op: "undelete", Puzzle: p.Name, Reason: "no pending delete"}
	}
	return m.store.UpdatePuzzleFields(p, map[string]interface{}{
		"status":         models.StatusActive,
		"delete_request": nil,
	})
}

// FinalizeDelete marks the puzzle deleted. Terminal.
func (m *Machine) FinalizeDelete(p *models.Puzzle) error {
	return m.store.UpdatePuzzleFields(p, map[string]interface{}{
		"status":      models.StatusDeleted,
		"delete_time": m.now(),
	})
}

// FinalizeArchive records where the puzzle's channel was archived to.
// Terminal with respect to the solve branch.
func (m *Machine) FinalizeArchive(p *models.Puzzle, solvedCategoryID, archivedMention string) error {
	if p.SolveTime == nil {
		return &InvalidTransitionError{Op: "archive", Puzzle: p.Name, Reason: "not solved"}
	}
	return m.store.UpdatePuzzleFields(p, map[string]interface{}{
		"archive_time":            m.now(),
		"solved_category_id":      solvedCategoryID,
		"archive_channel_mention": archivedMention,
	})
}
