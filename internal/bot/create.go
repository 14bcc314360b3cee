package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/rounds"
	"github.com/pwolcott/huntmaster/internal/settings"
	"github.com/pwolcott/huntmaster/internal/workspace"
)

// cmdPuzzle creates puzzle channels: `!puzzle round-name: puzzle-name`, or
// just `!puzzle puzzle-name` from inside a round.
func (h *Handler) cmdPuzzle(ctx context.Context, req Request, rest string) (string, error) {
	if rest == "" {
		return "", fmt.Errorf("usage: `!puzzle round-name: puzzle-name`")
	}

	// A trailing http(s) token is an explicit puzzle page URL.
	overrideURL := ""
	if i := strings.LastIndex(rest, " "); i >= 0 {
		if last := rest[i+1:]; strings.HasPrefix(last, "http://") || strings.HasPrefix(last, "https://") {
			overrideURL, rest = last, strings.TrimSpace(rest[:i])
		}
	}

	var roundName, puzzleName string
	if before, after, found := strings.Cut(rest, ":"); found {
		roundName, puzzleName = strings.TrimSpace(before), strings.TrimSpace(after)
	} else {
		// No round given: fall back to the category the command came from.
		if req.SectionID == "" {
			return "", fmt.Errorf("unable to tell which round %q belongs to, try `!puzzle round-name: puzzle-name`", rest)
		}
		section, err := h.ws.SectionByID(ctx, req.GuildID, req.SectionID)
		if err != nil {
			return "", fmt.Errorf("unable to tell which round %q belongs to, try `!puzzle round-name: puzzle-name`", rest)
		}
		roundName, puzzleName = section.Name, rest
	}
	if puzzleName == "" {
		return "", fmt.Errorf("usage: `!puzzle round-name: puzzle-name`")
	}

	section, err := h.findRoundSection(ctx, req.GuildID, roundName)
	if err != nil {
		return "", err
	}
	return h.createPuzzleChannel(ctx, req, section, puzzleName, rounds.AttachOpts{FromCategoryID: req.SectionID}, overrideURL)
}

// cmdRound creates a round category plus its discussion channel:
// `!round round-name`.
func (h *Handler) cmdRound(ctx context.Context, req Request, rest string) (string, error) {
	if rest == "" {
		return "", fmt.Errorf("usage: `!round round-name`")
	}
	section, _, err := h.ensureRoundSection(ctx, req, rest)
	if err != nil {
		return "", err
	}
	guild, err := h.cache.Guild(req.GuildID)
	if err != nil {
		return "", err
	}
	return h.createPuzzleChannel(ctx, req, section, guild.DiscussionChannel, rounds.AttachOpts{FromCategoryID: req.SectionID}, "")
}

// cmdHunt starts a new hunt: `!hunt hunt-name hunt-url`. The hunt gets its
// own first round, a drive folder, and a nexus sheet.
func (h *Handler) cmdHunt(ctx context.Context, req Request, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: `!hunt hunt-name hunt-url`")
	}
	name, url := args[0], args[1]

	hunt, err := h.store.GetOrCreateHunt(req.GuildID, CleanName(name))
	if err != nil {
		return "", err
	}
	if _, _, err := settings.UpdateHunt(hunt, "url", url); err != nil {
		return "", err
	}
	if err := h.store.SaveHunt(hunt); err != nil {
		return "", err
	}

	section, round, err := h.ensureRoundSection(ctx, req, name)
	if err != nil {
		return "", err
	}
	if _, err := h.resolver.AttachHunt(round, rounds.AttachOpts{HuntName: hunt.DisplayName()}); err != nil {
		return "", err
	}

	if err := h.ensureHuntDrive(ctx, req, hunt); err != nil {
		return "", err
	}

	guild, err := h.cache.Guild(req.GuildID)
	if err != nil {
		return "", err
	}
	reply, err := h.createPuzzleChannel(ctx, req, section, guild.DiscussionChannel, rounds.AttachOpts{HuntName: hunt.DisplayName()}, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Started hunt `%s` at %s\n%s", hunt.DisplayName(), url, reply), nil
}

// findRoundSection locates the category for a round name, accepting either
// the display name or its channel-safe form.
func (h *Handler) findRoundSection(ctx context.Context, guildID, name string) (*workspace.Section, error) {
	section, err := h.ws.FindSection(ctx, guildID, strings.TrimSpace(name))
	if errors.Is(err, workspace.ErrNotFound) {
		section, err = h.ws.FindSection(ctx, guildID, CleanName(name))
	}
	if errors.Is(err, workspace.ErrNotFound) {
		return nil, fmt.Errorf("round %q not found, create it first with `!round %s`", name, CleanName(name))
	}
	return section, err
}

// ensureRoundSection finds or creates the category for a round and registers
// the round row.
func (h *Handler) ensureRoundSection(ctx context.Context, req Request, name string) (*workspace.Section, *models.Round, error) {
	categoryName := CleanName(name)
	section, err := h.ws.FindSection(ctx, req.GuildID, categoryName)
	if errors.Is(err, workspace.ErrNotFound) {
		sections, serr := h.ws.Sections(ctx, req.GuildID)
		if serr != nil {
			return nil, nil, serr
		}
		// Keep the trailing categories (solved archives, admin) at the end.
		position := len(sections) - 2
		if position < 1 {
			position = len(sections)
		}
		section, err = h.ws.CreateSection(ctx, req.GuildID, categoryName, position)
	}
	if err != nil {
		return nil, nil, err
	}

	round, err := h.resolver.ResolveRound(req.GuildID, section.ID, section.Name)
	if err != nil {
		return nil, nil, err
	}
	return section, round, nil
}

// createPuzzleChannel is the common path for the puzzle, round, and hunt
// commands: get or create the text (and voice) channel, register the puzzle
// row, derive its hunt URL, and set up its spreadsheet.
func (h *Handler) createPuzzleChannel(ctx context.Context, req Request, section *workspace.Section, puzzleName string, attach rounds.AttachOpts, overrideURL string) (string, error) {
	guild, err := h.cache.Guild(req.GuildID)
	if err != nil {
		return "", err
	}
	round, err := h.resolver.ResolveRound(req.GuildID, section.ID, section.Name)
	if err != nil {
		return "", err
	}
	hunt, err := h.resolver.AttachHunt(round, attach)
	if err != nil {
		return "", err
	}

	channelName := CleanName(puzzleName)
	ch, createdText, err := h.getOrCreateChannel(ctx, req.GuildID, channelName, section.ID, workspace.ChannelText)
	if err != nil {
		return "", err
	}

	p, err := h.store.GetOrCreatePuzzle(req.GuildID, ch.ID, round.ID)
	if err != nil {
		return "", err
	}
	if p.StartTime == nil {
		url := overrideURL
		if url == "" {
			url = h.deriveURL(guild, hunt, round, channelName, section.Name)
		}
		fields := map[string]interface{}{
			"name":            channelName,
			"round_name":      section.Name,
			"guild_name":      req.GuildName,
			"channel_mention": ch.Mention,
			"url":             url,
			"start_time":      h.now(),
		}
		if channelName == guild.DiscussionChannel {
			fields["puzzle_type"] = "discussion"
		}
		if err := h.store.UpdatePuzzleFields(p, fields); err != nil {
			return "", err
		}
		if channelName != guild.DiscussionChannel {
			if err := h.setupPuzzleSheet(ctx, req, guild, hunt, p, section.Name); err != nil {
				// Sheets are best effort; the puzzle channel still works.
				fmt.Fprintf(h.out, "puzzle sheet setup for %s failed: %v\n", p.Name, err)
			}
		}
	}

	createdVoice := false
	if guild.UseVoiceChannels {
		voice, created, verr := h.getOrCreateChannel(ctx, req.GuildID, channelName, section.ID, workspace.ChannelVoice)
		if verr != nil {
			return "", verr
		}
		createdVoice = created
		if created {
			if err := h.store.UpdatePuzzleFields(p, map[string]interface{}{"voice_channel_id": voice.ID}); err != nil {
				return "", err
			}
		}
	}

	switch {
	case createdText && createdVoice:
		return fmt.Sprintf(":white_check_mark: I've created new puzzle text and voice channels for %s: %s", section.Name, ch.Mention), nil
	case createdText:
		return fmt.Sprintf(":white_check_mark: I've created a new puzzle channel for %s: %s", section.Name, ch.Mention), nil
	case createdVoice:
		return fmt.Sprintf(":white_check_mark: I've created a new voice channel for %s: %s", section.Name, ch.Mention), nil
	default:
		return fmt.Sprintf("I've found an already existing puzzle channel for %s: %s", section.Name, ch.Mention), nil
	}
}

// getOrCreateChannel finds a channel by name within the section or creates
// it there.
func (h *Handler) getOrCreateChannel(ctx context.Context, guildID, name, sectionID string, typ workspace.ChannelType) (*workspace.Channel, bool, error) {
	ch, err := h.ws.FindChannel(ctx, guildID, name, typ)
	if err == nil && ch.SectionID == sectionID {
		return ch, false, nil
	}
	if err != nil && !errors.Is(err, workspace.ErrNotFound) {
		return nil, false, err
	}
	ch, err = h.ws.CreateChannel(ctx, guildID, name, sectionID, typ)
	if err != nil {
		return nil, false, err
	}
	return ch, true, nil
}

// deriveURL resolves the puzzle's hunt-site URL through the settings chain.
// Discussion channels link to the round page instead of a puzzle page.
func (h *Handler) deriveURL(guild *models.Guild, hunt *models.Hunt, round *models.Round, channelName, roundName string) string {
	chain := settings.Chain{Round: round, Hunt: hunt, Guild: guild}
	base, err := settings.Resolve(chain, "url")
	if err != nil || base == "" {
		return ""
	}
	sep, _ := settings.Resolve(chain, "url_sep")

	if channelName == guild.DiscussionChannel {
		if ru, err := settings.Resolve(chain, "round_url"); err == nil && ru != "" {
			base = ru
		}
		return puzzleURL(base, sep, CleanName(roundName))
	}
	return puzzleURL(base, sep, channelName)
}

// setupPuzzleSheet creates the round's drive folder and the puzzle's
// spreadsheet, seeded with a quick links block.
func (h *Handler) setupPuzzleSheet(ctx context.Context, req Request, guild *models.Guild, hunt *models.Hunt, p *models.Puzzle, roundName string) error {
	if h.docs == nil || guild.DriveParentID == "" {
		return nil
	}

	parent := guild.DriveParentID
	if hunt != nil && hunt.DriveFolderID != "" {
		parent = hunt.DriveFolderID
	}
	folderID, _, err := h.docs.GetOrCreateFolder(ctx, CapName(roundName), parent)
	if err != nil {
		return err
	}

	var sheetID string
	if guild.DriveStarterSheetID != "" {
		sheetID, err = h.docs.CopySpreadsheet(ctx, guild.DriveStarterSheetID, CapName(p.Name), folderID)
	} else {
		sheetID, err = h.docs.CreateSpreadsheet(ctx, CapName(p.Name), folderID)
	}
	if err != nil {
		return err
	}

	if err := h.store.UpdatePuzzleFields(p, map[string]interface{}{
		"folder_id": folderID,
		"sheet_id":  sheetID,
	}); err != nil {
		return err
	}

	h.writeQuickLinks(ctx, guild, hunt, p, folderID, sheetID)

	return h.ws.SendMessage(ctx, p.ChannelID,
		fmt.Sprintf(":ladder: :dog: I've created a spreadsheet for you at %s", drive.SpreadsheetURL(sheetID)))
}

// writeQuickLinks seeds the new sheet with the links solvers reach for
// first. Failures only cost the convenience block, so they are logged and
// swallowed.
func (h *Handler) writeQuickLinks(ctx context.Context, guild *models.Guild, hunt *models.Hunt, p *models.Puzzle, folderID, sheetID string) {
	nexusURL := ""
	if hunt != nil && hunt.NexusSheetID != "" {
		nexusURL = drive.SpreadsheetURL(hunt.NexusSheetID)
	}
	resources := ""
	chain := settings.Chain{Hunt: hunt, Guild: guild}
	if id, err := settings.Resolve(chain, "drive_resources_id"); err == nil && id != "" {
		resources = drive.DocsURL(id)
	}
	rows := [][]string{
		{"Hunt URL", p.URL},
		{"Drive folder", drive.FolderURL(folderID)},
		{"Nexus", nexusURL},
		{"Resources", resources},
		{"Discord channel", p.ChannelMention},
		{"Reminders", "Please create a new worksheet if you're making large changes (e.g. re-sorting)"},
	}
	if err := h.docs.WriteCells(ctx, sheetID, "A1:B6", rows); err != nil {
		fmt.Fprintf(h.out, "quick links for %s failed: %v\n", p.Name, err)
	}
}

// ensureHuntDrive creates the hunt's drive folder and nexus sheet.
func (h *Handler) ensureHuntDrive(ctx context.Context, req Request, hunt *models.Hunt) error {
	guild, err := h.cache.Guild(req.GuildID)
	if err != nil {
		return err
	}
	if h.docs == nil || guild.DriveParentID == "" {
		return nil
	}

	if hunt.DriveFolderID == "" {
		folderID, _, err := h.docs.GetOrCreateFolder(ctx, CapName(hunt.DisplayName()), guild.DriveParentID)
		if err != nil {
			return err
		}
		hunt.DriveFolderID = folderID
	}
	if hunt.NexusSheetID == "" {
		sheetID, err := h.docs.CreateSpreadsheet(ctx, CapName(hunt.DisplayName())+" Nexus", hunt.DriveFolderID)
		if err != nil {
			return err
		}
		hunt.NexusSheetID = sheetID
	}
	return h.store.SaveHunt(hunt)
}
