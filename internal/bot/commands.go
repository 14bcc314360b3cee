package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/lifecycle"
	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/settings"
	"github.com/pwolcott/huntmaster/internal/store"
	"github.com/pwolcott/huntmaster/internal/workspace"
)

func (h *Handler) cmdSolve(ctx context.Context, req Request, rest string) (string, error) {
	if rest == "" {
		return "", fmt.Errorf("usage: `!solve SOLUTION`")
	}
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	if err := h.lc.MarkSolved(p, rest); err != nil {
		return "", err
	}

	guild, err := h.cache.Guild(req.GuildID)
	if err != nil {
		return "", err
	}
	minutes := float64(guild.ArchiveDelay) / 60
	return fmt.Sprintf(":partying_face: Thank you for solving this puzzle! Solution `%s` recorded. "+
		"Channel will be archived in %g minute(s) unless someone `!unsolve`s it.", p.Solution, minutes), nil
}

func (h *Handler) cmdUnsolve(ctx context.Context, req Request) (string, error) {
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	var bad *lifecycle.InvalidTransitionError
	if err := h.lc.MarkUnsolved(p); errors.As(err, &bad) {
		return "", fmt.Errorf("this puzzle has already been archived and cannot be unsolved")
	} else if err != nil {
		return "", err
	}
	return ":face_palm: Alright, I've marked this puzzle as unsolved.", nil
}

func (h *Handler) cmdDelete(ctx context.Context, req Request) (string, error) {
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	var bad *lifecycle.InvalidTransitionError
	if err := h.lc.RequestDelete(p); errors.As(err, &bad) {
		return "", fmt.Errorf("cannot delete: %s", bad.Reason)
	} else if err != nil {
		return "", err
	}
	minutes := h.rec.Grace().Minutes()
	return fmt.Sprintf(":wastebasket: This channel will be deleted in about %g minute(s). "+
		"Use `!undelete` to cancel.", minutes), nil
}

func (h *Handler) cmdUndelete(ctx context.Context, req Request) (string, error) {
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	var bad *lifecycle.InvalidTransitionError
	if err := h.lc.CancelDelete(p); errors.As(err, &bad) {
		return "There is nothing pending deletion here.", nil
	} else if err != nil {
		return "", err
	}
	return ":relieved: The deletion has been cancelled.", nil
}

// cmdAttr shows or updates a free-text puzzle attribute (status or type).
func (h *Handler) cmdAttr(ctx context.Context, req Request, key, rest string) (string, error) {
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	label := strings.ReplaceAll(key, "_", " ")
	current := map[string]string{
		"status":      p.Status,
		"puzzle_type": p.PuzzleType,
	}[key]

	if rest == "" {
		if current == "" {
			current = "(not set)"
		}
		return fmt.Sprintf("The %s of this puzzle is `%s`.", label, current), nil
	}
	if key == "status" && strings.EqualFold(strings.TrimSpace(rest), models.StatusSolved) {
		return "", fmt.Errorf("use `!solve SOLUTION` to mark a puzzle solved")
	}
	if err := h.store.UpdatePuzzleFields(p, map[string]interface{}{key: rest}); err != nil {
		return "", err
	}
	return fmt.Sprintf(":white_check_mark: Set %s to `%s`.", label, rest), nil
}

func (h *Handler) cmdPriority(ctx context.Context, req Request, rest string) (string, error) {
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	if rest == "" {
		pri := p.Priority
		if pri == "" {
			pri = "(not set)"
		}
		return fmt.Sprintf("The priority of this puzzle is `%s`.", pri), nil
	}
	pri := strings.ToLower(strings.TrimSpace(rest))
	if !models.ValidPriority(pri) {
		return "", fmt.Errorf("priority must be one of: %s", strings.Join(models.Priorities, ", "))
	}
	if err := h.store.UpdatePuzzleFields(p, map[string]interface{}{"priority": pri}); err != nil {
		return "", err
	}
	return fmt.Sprintf(":white_check_mark: Set priority to `%s`.", pri), nil
}

func (h *Handler) cmdLink(ctx context.Context, req Request, rest string) (string, error) {
	if rest == "" {
		return "", fmt.Errorf("usage: `!link https://the.hunt/puzzle/page`")
	}
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	if err := h.store.UpdatePuzzleFields(p, map[string]interface{}{"url": rest}); err != nil {
		return "", err
	}
	return fmt.Sprintf(":white_check_mark: Updated the puzzle's hunt page to %s.", rest), nil
}

func (h *Handler) cmdSheet(ctx context.Context, req Request, rest string) (string, error) {
	if rest == "" {
		return "", fmt.Errorf("usage: `!sheet https://docs.google.com/spreadsheets/d/...`")
	}
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	id := drive.ExtractID(rest)
	if id == "" {
		return "", fmt.Errorf("that does not look like a Google Drive URL or file ID")
	}
	if err := h.store.UpdatePuzzleFields(p, map[string]interface{}{"sheet_id": id}); err != nil {
		return "", err
	}
	return fmt.Sprintf(":white_check_mark: This puzzle's spreadsheet is now %s.", drive.SpreadsheetURL(id)), nil
}

// cmdNote lists this puzzle's notes, or adds one when text is given.
func (h *Handler) cmdNote(ctx context.Context, req Request, rest string) (string, error) {
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	if rest != "" {
		notes, err := h.store.Notes(p.ID)
		if err != nil {
			return "", err
		}
		if _, err := h.store.AddNote(p.ID, rest, req.Author, req.JumpURL); err != nil {
			return "", err
		}
		return fmt.Sprintf(":pencil: Added note #%d.", len(notes)+1), nil
	}

	notes, err := h.store.Notes(p.ID)
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "There are no notes on this puzzle. Add one with `!note some insight`.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Notes on %s (use `!erase_note N` to remove one):\n", p.Name)
	for i, n := range notes {
		fmt.Fprintf(&b, "%d. %s", i+1, n.Text)
		if n.Author != "" {
			fmt.Fprintf(&b, " _(%s)_", n.Author)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (h *Handler) cmdEraseNote(ctx context.Context, req Request, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: `!erase_note N`")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("usage: `!erase_note N`")
	}
	p, err := h.puzzleHere(req)
	if err != nil {
		return "", err
	}
	n, err := h.store.DeleteNoteByIndex(p.ID, index)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("there is no note #%d, check `!note` for the current list", index)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(":wastebasket: Erased note #%d: %s", index, n.Text), nil
}

// cmdList renders all active puzzles in the guild, grouped by round in hunt
// order.
func (h *Handler) cmdList(ctx context.Context, req Request) (string, error) {
	puzzles, err := h.store.AllPuzzles(req.GuildID)
	if err != nil {
		return "", err
	}
	if len(puzzles) == 0 {
		return "No puzzles yet. Start one with `!puzzle round-name: puzzle-name`.", nil
	}

	var b strings.Builder
	lastRound := ""
	for _, p := range puzzles {
		if p.RoundName != lastRound {
			fmt.Fprintf(&b, "**%s**\n", CapName(p.RoundName))
			lastRound = p.RoundName
		}
		b.WriteString("  " + p.ChannelMention)
		if p.PuzzleType != "" {
			fmt.Fprintf(&b, " (%s)", p.PuzzleType)
		}
		switch {
		case p.IsSolved():
			fmt.Fprintf(&b, " solved: `%s`", p.Solution)
		case p.Status != "":
			fmt.Fprintf(&b, " [%s]", p.Status)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (h *Handler) cmdShowSettings(req Request) (string, error) {
	guild, err := h.cache.Guild(req.GuildID)
	if err != nil {
		return "", err
	}
	return renderSettings("Guild settings", settings.GuildValues(guild)), nil
}

func (h *Handler) cmdUpdateSetting(req Request, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: `!update_setting key value`")
	}
	key, raw := args[0], strings.Join(args[1:], " ")
	old, updated, err := h.cache.UpdateGuildSetting(req.GuildID, key, raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(":white_check_mark: Updated `%s` from `%s` to `%s`.", key, display(old), display(updated)), nil
}

func (h *Handler) cmdShowHuntSettings(req Request) (string, error) {
	hunt, err := h.huntHere(req)
	if err != nil {
		return "", err
	}
	return renderSettings(fmt.Sprintf("Hunt settings for %s", hunt.DisplayName()), settings.HuntValues(hunt)), nil
}

func (h *Handler) cmdUpdateHuntSetting(req Request, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: `!update_hunt_setting key value`")
	}
	hunt, err := h.huntHere(req)
	if err != nil {
		return "", err
	}
	key, raw := args[0], strings.Join(args[1:], " ")
	old, updated, err := settings.UpdateHunt(hunt, key, raw)
	if err != nil {
		return "", err
	}
	if err := h.store.SaveHunt(hunt); err != nil {
		return "", err
	}
	return fmt.Sprintf(":white_check_mark: Updated hunt `%s` from `%s` to `%s`.", key, display(old), display(updated)), nil
}

// cmdArchiveSolved archives every solved puzzle immediately instead of
// waiting out the archive delay.
func (h *Handler) cmdArchiveSolved(ctx context.Context, req Request) (string, error) {
	guild, err := h.cache.Guild(req.GuildID)
	if err != nil {
		return "", err
	}
	n, err := h.rec.ArchiveSolvedNow(ctx, guild)
	if err != nil {
		return "", fmt.Errorf("archived %d before failing: %w", n, err)
	}
	if n == 0 {
		return "Nothing to archive.", nil
	}
	return fmt.Sprintf(":file_cabinet: Archived %d solved puzzle channel(s).", n), nil
}

// cmdCleanupDeleted reconciles rows whose channels were removed by hand in
// the workspace, so they stop showing up in listings.
func (h *Handler) cmdCleanupDeleted(ctx context.Context, req Request) (string, error) {
	puzzles, err := h.store.AllPuzzles(req.GuildID)
	if err != nil {
		return "", err
	}
	count := 0
	for i := range puzzles {
		p := &puzzles[i]
		_, err := h.ws.FindChannel(ctx, req.GuildID, p.Name, workspace.ChannelText)
		if err == nil {
			continue
		}
		if !errors.Is(err, workspace.ErrNotFound) {
			return "", err
		}
		if err := h.lc.FinalizeDelete(p); err != nil {
			return "", err
		}
		count++
	}
	if count == 0 {
		return "All puzzle rows still have channels, nothing to clean up.", nil
	}
	return fmt.Sprintf(":broom: Marked %d puzzle(s) as deleted for missing channels.", count), nil
}

// huntHere finds the hunt of the round this command was typed in.
func (h *Handler) huntHere(req Request) (*models.Hunt, error) {
	if req.SectionID == "" {
		return nil, fmt.Errorf("run this from a channel inside a round category")
	}
	round, err := h.store.RoundByCategory(req.SectionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("this category is not a tracked round")
	}
	if err != nil {
		return nil, err
	}
	if round.HuntID == nil {
		return nil, fmt.Errorf("round %q is not attached to a hunt yet", round.Name)
	}
	return h.store.Hunt(*round.HuntID)
}

func renderSettings(title string, vals map[string]string) string {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(title + ":\n```\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, display(vals[k]))
	}
	b.WriteString("```")
	return b.String()
}

func display(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}
