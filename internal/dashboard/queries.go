package dashboard

import (
	"time"

	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/store"
)

// GuildRow summarizes one guild for the guild index.
type GuildRow struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ActiveHunts   int    `json:"active_hunts"`
	OpenPuzzles   int    `json:"open_puzzles"`
	SolvedPuzzles int    `json:"solved_puzzles"`
}

// GuildSummary returns per-guild hunt and puzzle counts.
func GuildSummary(s *store.Store) ([]GuildRow, error) {
	guilds, err := s.AllGuilds()
	if err != nil {
		return nil, err
	}

	rows := make([]GuildRow, 0, len(guilds))
	for _, g := range guilds {
		hunts, err := s.ActiveHunts(g.ID)
		if err != nil {
			return nil, err
		}
		puzzles, err := s.AllPuzzles(g.ID)
		if err != nil {
			return nil, err
		}
		row := GuildRow{ID: g.ID, Name: g.Name, ActiveHunts: len(hunts)}
		for _, p := range puzzles {
			if p.IsSolved() {
				row.SolvedPuzzles++
			} else {
				row.OpenPuzzles++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// HuntRow summarizes one hunt and its progress.
type HuntRow struct {
	ID      uint       `json:"id"`
	Name    string     `json:"name"`
	URL     string     `json:"url,omitempty"`
	Rounds  int        `json:"rounds"`
	Puzzles int        `json:"puzzles"`
	Solved  int        `json:"solved"`
	Started *time.Time `json:"started,omitempty"`
}

// HuntSummary returns progress for every active hunt in the guild.
func HuntSummary(s *store.Store, guildID string) ([]HuntRow, error) {
	hunts, err := s.ActiveHunts(guildID)
	if err != nil {
		return nil, err
	}

	rows := make([]HuntRow, 0, len(hunts))
	for _, h := range hunts {
		row := HuntRow{
			ID:      h.ID,
			Name:    h.DisplayName(),
			URL:     h.URL,
			Started: h.StartTime,
		}
		rounds, err := s.RoundsInHunt(h.ID)
		if err != nil {
			return nil, err
		}
		row.Rounds = len(rounds)
		for _, r := range rounds {
			puzzles, err := s.PuzzlesInRound(r.ID)
			if err != nil {
				return nil, err
			}
			row.Puzzles += len(puzzles)
			for _, p := range puzzles {
				if p.IsSolved() {
					row.Solved++
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PuzzleRow is one puzzle in the per-guild listing.
type PuzzleRow struct {
	Name      string     `json:"name"`
	Round     string     `json:"round"`
	Status    string     `json:"status"`
	Solution  string     `json:"solution,omitempty"`
	Priority  string     `json:"priority,omitempty"`
	Type      string     `json:"type,omitempty"`
	URL       string     `json:"url,omitempty"`
	SheetURL  string     `json:"sheet_url,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	SolveTime *time.Time `json:"solve_time,omitempty"`
}

// PuzzleSummary returns every live puzzle in the guild in round order, the
// same order the nexus sheet uses.
func PuzzleSummary(s *store.Store, guildID string) ([]PuzzleRow, error) {
	puzzles, err := s.AllPuzzles(guildID)
	if err != nil {
		return nil, err
	}

	rows := make([]PuzzleRow, 0, len(puzzles))
	for _, p := range puzzles {
		status := p.Status
		if status == "" {
			status = "active"
		}
		row := PuzzleRow{
			Name:      p.Name,
			Round:     p.RoundName,
			Status:    status,
			Solution:  p.Solution,
			Priority:  p.Priority,
			Type:      p.PuzzleType,
			URL:       p.URL,
			StartTime: p.StartTime,
			SolveTime: p.SolveTime,
		}
		if p.SheetID != "" {
			row.SheetURL = drive.SpreadsheetURL(p.SheetID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
