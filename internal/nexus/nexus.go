// Package nexus maintains the central dashboard spreadsheet with one row per
// puzzle: channel links, sheet links, status, and solve metadata.
package nexus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/models"
)

// headerRow is the first row written; row 1 is left for a guild-managed title.
const headerRow = 2

var columns = []string{
	"name",
	"round_name",
	"channel_mention",
	"hunt_url",
	"sheet_url",
	"status",
	"solution",
	"priority",
	"puzzle_type",
	"notes",
	"start_time",
	"solve_time",
}

// Update rewrites the dashboard sheet from the given puzzles. noteCounts maps
// puzzle ID to its number of notes; missing entries render as 0.
func Update(ctx context.Context, docs drive.DocumentStore, fileID string, puzzles []models.Puzzle, noteCounts map[uint]int) error {
	rows := make([][]string, 0, len(puzzles)+1)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = title(c)
	}
	rows = append(rows, header)

	for i := range puzzles {
		rows = append(rows, puzzleRow(&puzzles[i], noteCounts[puzzles[i].ID]))
	}

	rangeA1 := fmt.Sprintf("A%d:%s%d", headerRow, columnLetter(len(columns)), headerRow+len(puzzles))
	if err := docs.WriteCells(ctx, fileID, rangeA1, rows); err != nil {
		return fmt.Errorf("nexus: update %s: %w", fileID, err)
	}
	return nil
}

func puzzleRow(p *models.Puzzle, notes int) []string {
	status := string(p.Status)
	if status == "" {
		status = "active"
	}
	return []string{
		p.Name,
		p.RoundName,
		p.ChannelMention,
		p.URL,
		sheetURL(p.SheetID),
		status,
		p.Solution,
		p.Priority,
		p.PuzzleType,
		strconv.Itoa(notes),
		formatTime(p.StartTime),
		formatTime(p.SolveTime),
	}
}

func sheetURL(id string) string {
	if id == "" {
		return ""
	}
	return drive.SpreadsheetURL(id)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// title turns a column key into its header label, e.g. "round_name" into
// "Round Name".
func title(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// columnLetter converts a 1-based column count to its A1 letter.
func columnLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}
