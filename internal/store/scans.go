package store

import (
	"time"

	"github.com/pwolcott/huntmaster/internal/models"
)

// SolvedPuzzlesToArchive returns solved but unarchived puzzles whose solve
// time crossed the guild's archive delay before now. The guild's designated
// discussion puzzle is skipped unless includeGeneral is set.
func (s *Store) SolvedPuzzlesToArchive(guildID string, now time.Time, includeGeneral bool) ([]models.Puzzle, error) {
	guild, err := s.GetOrCreateGuild(guildID)
	if err != nil {
		return nil, err
	}
	all, err := s.AllPuzzles(guildID)
	if err != nil {
		return nil, err
	}

	delay := time.Duration(guild.ArchiveDelay) * time.Second
	var matched []models.Puzzle
	for _, p := range all {
		if p.ArchiveTime != nil {
			continue // already archived
		}
		if p.Name == guild.DiscussionChannel && !includeGeneral {
			continue // discussion channels archive only on explicit request
		}
		if !p.IsSolved() {
			continue
		}
		if now.Sub(*p.SolveTime) > delay {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// PuzzlesToDelete returns puzzles with a pending delete request older than
// the grace period. Solved or archived puzzles never match: those must go
// through the archive path.
func (s *Store) PuzzlesToDelete(guildID string, now time.Time, grace time.Duration, includeGeneral bool) ([]models.Puzzle, error) {
	guild, err := s.GetOrCreateGuild(guildID)
	if err != nil {
		return nil, err
	}
	all, err := s.AllPuzzles(guildID)
	if err != nil {
		return nil, err
	}

	var matched []models.Puzzle
	for _, p := range all {
		if p.SolveTime != nil || p.ArchiveTime != nil {
			continue
		}
		if p.Name == guild.DiscussionChannel && !includeGeneral {
			continue
		}
		if p.DeleteRequest == nil {
			continue
		}
		if now.Sub(*p.DeleteRequest) > grace {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// StaleActiveHunts returns active hunts whose newest puzzle activity (start
// or solve) predates the cutoff. Hunts with no puzzles at all are judged by
// their own start time.
func (s *Store) StaleActiveHunts(guildID string, cutoff time.Time) ([]models.Hunt, error) {
	hunts, err := s.ActiveHunts(guildID)
	if err != nil {
		return nil, err
	}

	var stale []models.Hunt
	for _, h := range hunts {
		last := time.Time{}
		if h.StartTime != nil {
			last = *h.StartTime
		}
		rounds, err := s.RoundsInHunt(h.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range rounds {
			puzzles, err := s.PuzzlesInRound(r.ID)
			if err != nil {
				return nil, err
			}
			for _, p := range puzzles {
				if p.StartTime != nil && p.StartTime.After(last) {
					last = *p.StartTime
				}
				if p.SolveTime != nil && p.SolveTime.After(last) {
					last = *p.SolveTime
				}
			}
		}
		if last.Before(cutoff) {
			stale = append(stale, h)
		}
	}
	return stale, nil
}
