// Package bot implements the chat command surface. Commands parse here and
// delegate to the store, settings, rounds, and lifecycle packages; the
// reconciler picks up the durable effects on its next tick.
package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/lifecycle"
	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/reconcile"
	"github.com/pwolcott/huntmaster/internal/rounds"
	"github.com/pwolcott/huntmaster/internal/settings"
	"github.com/pwolcott/huntmaster/internal/store"
	"github.com/pwolcott/huntmaster/internal/workspace"
)

// commandPrefix starts every bot command.
const commandPrefix = "!"

// Request carries the channel context a command arrived in.
type Request struct {
	GuildID     string
	GuildName   string
	ChannelID   string
	ChannelName string
	SectionID   string // category of the channel the command was typed in
	Author      string
	JumpURL     string
	Text        string
}

// Handler parses and executes bot commands.
type Handler struct {
	store    *store.Store
	cache    *settings.Cache
	resolver *rounds.Resolver
	lc       *lifecycle.Machine
	rec      *reconcile.Reconciler
	ws       workspace.Workspace
	docs     drive.DocumentStore // optional
	now      func() time.Time
	out      io.Writer
}

// HandlerOpts holds parameters for creating a Handler.
type HandlerOpts struct {
	Store     *store.Store
	Settings  *settings.Cache
	Workspace workspace.Workspace
	Docs      drive.DocumentStore // optional; nil disables sheet integration

	// DeleteGrace mirrors the daemon's configured grace so replies quote
	// the real wait, not the built-in default.
	DeleteGrace time.Duration
	Now         func() time.Time
	Out         io.Writer
}

// NewHandler creates a Handler.
func NewHandler(opts HandlerOpts) (*Handler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: store is required")
	}
	if opts.Settings == nil {
		return nil, fmt.Errorf("bot: settings cache is required")
	}
	if opts.Workspace == nil {
		return nil, fmt.Errorf("bot: workspace is required")
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	// The handler's own reconciler serves the manual archive command;
	// background scans run on a separately owned instance.
	rec, err := reconcile.New(reconcile.Opts{
		Store:       opts.Store,
		Workspace:   opts.Workspace,
		Docs:        opts.Docs,
		DeleteGrace: opts.DeleteGrace,
		Now:         now,
		Out:         out,
	})
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:    opts.Store,
		cache:    opts.Settings,
		resolver: rounds.NewResolver(opts.Store),
		lc:       lifecycle.NewAt(opts.Store, now),
		rec:      rec,
		ws:       opts.Workspace,
		docs:     opts.Docs,
		now:      now,
		out:      out,
	}, nil
}

// Execute parses and runs one command. The returned string is the reply to
// post in the channel; empty means the message was not a command. Command
// errors come back as user-facing ":exclamation:" messages, never as a
// silent drop.
func (h *Handler) Execute(ctx context.Context, req Request) string {
	text := strings.TrimSpace(req.Text)
	if !strings.HasPrefix(text, commandPrefix) {
		return ""
	}
	args := strings.Fields(strings.TrimPrefix(text, commandPrefix))
	if len(args) == 0 {
		return ""
	}
	cmd, rest := args[0], strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, commandPrefix), args[0]))

	reply, err := h.dispatch(ctx, req, cmd, rest, args[1:])
	if err != nil {
		return ":exclamation: " + err.Error()
	}
	return reply
}

func (h *Handler) dispatch(ctx context.Context, req Request, cmd, rest string, args []string) (string, error) {
	switch cmd {
	case "puzzle", "p":
		return h.cmdPuzzle(ctx, req, rest)
	case "round", "r":
		return h.cmdRound(ctx, req, rest)
	case "hunt":
		return h.cmdHunt(ctx, req, args)
	case "solve":
		return h.cmdSolve(ctx, req, rest)
	case "unsolve":
		return h.cmdUnsolve(ctx, req)
	case "delete":
		return h.cmdDelete(ctx, req)
	case "undelete":
		return h.cmdUndelete(ctx, req)
	case "status":
		return h.cmdAttr(ctx, req, "status", rest)
	case "type":
		return h.cmdAttr(ctx, req, "puzzle_type", rest)
	case "priority":
		return h.cmdPriority(ctx, req, rest)
	case "link":
		return h.cmdLink(ctx, req, rest)
	case "sheet", "doc":
		return h.cmdSheet(ctx, req, rest)
	case "note":
		return h.cmdNote(ctx, req, rest)
	case "erase_note":
		return h.cmdEraseNote(ctx, req, args)
	case "list", "list_puzzles":
		return h.cmdList(ctx, req)
	case "show_settings":
		return h.cmdShowSettings(req)
	case "update_setting":
		return h.cmdUpdateSetting(req, args)
	case "show_hunt_settings":
		return h.cmdShowHuntSettings(req)
	case "update_hunt_setting":
		return h.cmdUpdateHuntSetting(req, args)
	case "archive_solved":
		return h.cmdArchiveSolved(ctx, req)
	case "cleanup_deleted_channels":
		return h.cmdCleanupDeleted(ctx, req)
	case "info", "help":
		return h.helpText(), nil
	default:
		return "", fmt.Errorf("unknown command `%s%s`, try `%shelp`", commandPrefix, cmd, commandPrefix)
	}
}

// puzzleHere resolves the puzzle tracked for the channel the command was
// typed in.
func (h *Handler) puzzleHere(req Request) (*models.Puzzle, error) {
	p, err := h.store.Puzzle(req.GuildID, req.ChannelID)
	if err == store.ErrNotFound {
		return nil, fmt.Errorf("this does not appear to be a puzzle channel")
	}
	return p, err
}

func (h *Handler) helpText() string {
	return strings.Join([]string{
		"The following commands are available:",
		"• `!puzzle round-name: puzzle-name` creates a puzzle channel (just `!puzzle name` inside a round)",
		"• `!round round-name` creates a round category with its discussion channel",
		"• `!hunt hunt-name hunt-url` starts a new hunt",
		"• `!solve SOLUTION` marks this puzzle solved; the channel is archived after a delay",
		"• `!unsolve` undoes an accidental solve before archival",
		"• `!delete` schedules this channel for deletion (`!undelete` cancels)",
		"• `!status`, `!type`, `!priority` show or update puzzle metadata",
		"• `!link <url>`, `!sheet <url>` show or update puzzle links",
		"• `!note <text>` leaves a note, `!erase_note N` removes one",
		"• `!list` lists all puzzles by round",
	}, "\n")
}
