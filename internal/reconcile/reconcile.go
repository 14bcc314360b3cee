// Package reconcile drives the guild workspace and document tree toward the
// state the entity store says they should have. All changes flow through
// delayed scans so accidental solves and deletes can be undone before
// anything irreversible happens.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/lifecycle"
	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/store"
	"github.com/pwolcott/huntmaster/internal/workspace"
)

const (
	defaultDeleteGrace = 5 * time.Minute
	defaultCallTimeout = 30 * time.Second

	solvedPrefix = "SOLVED-"
)

// Reconciler runs the archive and delete scans for every guild.
type Reconciler struct {
	store    *store.Store
	ws       workspace.Workspace
	docs     drive.DocumentStore
	lc       *lifecycle.Machine
	grace    time.Duration
	callWait time.Duration
	now      func() time.Time
	out      io.Writer

	statusMu sync.Mutex
	status   Status
}

// Opts holds parameters for creating a Reconciler.
type Opts struct {
	Store     *store.Store
	Workspace workspace.Workspace
	Docs      drive.DocumentStore // optional; nil disables sheet renames

	DeleteGrace time.Duration // defaults to 5 minutes
	CallTimeout time.Duration // per external call; defaults to 30s
	Now         func() time.Time
	Out         io.Writer
}

// New creates a Reconciler.
func New(opts Opts) (*Reconciler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("reconcile: store is required")
	}
	if opts.Workspace == nil {
		return nil, fmt.Errorf("reconcile: workspace is required")
	}
	grace := opts.DeleteGrace
	if grace <= 0 {
		grace = defaultDeleteGrace
	}
	wait := opts.CallTimeout
	if wait <= 0 {
		wait = defaultCallTimeout
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Reconciler{
		store:    opts.Store,
		ws:       opts.Workspace,
		docs:     opts.Docs,
		lc:       lifecycle.NewAt(opts.Store, now),
		grace:    grace,
		callWait: wait,
		now:      now,
		out:      out,
	}, nil
}

// Tick runs one reconciliation pass over every guild. A failing guild is
// logged and skipped; it never blocks the others.
func (r *Reconciler) Tick(ctx context.Context) error {
	guilds, err := r.store.AllGuilds()
	if err != nil {
		return fmt.Errorf("reconcile: list guilds: %w", err)
	}
	for i := range guilds {
		if err := r.reconcileGuild(ctx, &guilds[i]); err != nil {
			log.Printf("reconcile guild %s error: %v", guilds[i].ID, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (r *Reconciler) reconcileGuild(ctx context.Context, g *models.Guild) error {
	if err := r.archiveScan(ctx, g); err != nil {
		log.Printf("reconcile archive scan %s error: %v", g.ID, err)
	}
	if err := r.deleteScan(ctx, g); err != nil {
		log.Printf("reconcile delete scan %s error: %v", g.ID, err)
	}
	return nil
}

// ArchiveSolvedNow archives every solved, unarchived puzzle in the guild
// without waiting out the archive delay. Backs the manual archive command.
// Returns the number of puzzles archived; stops at the first failure so the
// caller can report a partial count.
func (r *Reconciler) ArchiveSolvedNow(ctx context.Context, g *models.Guild) (int, error) {
	all, err := r.store.AllPuzzles(g.ID)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range all {
		p := &all[i]
		if !p.IsSolved() || p.ArchiveTime != nil || p.Name == g.DiscussionChannel {
			continue
		}
		if err := r.archivePuzzle(ctx, g, p); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Grace reports the delete grace period, for user-facing messages.
func (r *Reconciler) Grace() time.Duration {
	return r.grace
}

// archiveScan moves solved puzzles past the archive delay into their round's
// solved section. Per-item failures are logged and retried on the next tick;
// the scan is idempotent because archived puzzles stop matching.
func (r *Reconciler) archiveScan(ctx context.Context, g *models.Guild) error {
	due, err := r.store.SolvedPuzzlesToArchive(g.ID, r.now(), false)
	if err != nil {
		return err
	}
	for i := range due {
		if err := r.archivePuzzle(ctx, g, &due[i]); err != nil {
			log.Printf("reconcile archive %s/%s error: %v", g.ID, due[i].Name, err)
			continue
		}
		fmt.Fprintf(r.out, "Archived puzzle %s (round %s)\n", due[i].Name, due[i].RoundName)
	}
	return nil
}

func (r *Reconciler) archivePuzzle(ctx context.Context, g *models.Guild, p *models.Puzzle) error {
	round, err := r.store.Round(p.RoundID)
	if err != nil {
		return fmt.Errorf("round %d: %w", p.RoundID, err)
	}

	section, err := r.solvedSection(ctx, g.ID, round)
	if err != nil {
		return err
	}

	// A channel someone already removed by hand has nothing left to move;
	// the archive still completes so the row stops matching the scan.
	if err := r.moveChannel(ctx, g.ID, p.ChannelID, section.ID); err != nil && !errors.Is(err, workspace.ErrNotFound) {
		return err
	}

	// The voice channel is disposable; losing it is not worth failing the
	// archive over.
	if p.VoiceChannelID != "" {
		if err := r.deleteChannel(ctx, g.ID, p.VoiceChannelID); err != nil && !errors.Is(err, workspace.ErrNotFound) {
			log.Printf("reconcile voice channel delete %s error: %v", p.VoiceChannelID, err)
		}
	}

	if r.docs != nil && p.SheetID != "" {
		if err := r.renameSolvedSheet(ctx, p); err != nil {
			log.Printf("reconcile sheet rename %s error: %v", p.SheetID, err)
		}
	}

	return r.lc.FinalizeArchive(p, section.ID, p.ChannelMention)
}

// solvedSection returns the round's solved section, creating SOLVED-<round>
// next to the round's own section on first use. The section ID is cached on
// the round row so later archives in the same round skip the lookup.
func (r *Reconciler) solvedSection(ctx context.Context, guildID string, round *models.Round) (*workspace.Section, error) {
	if round.SolvedCategoryID != "" {
		section, err := r.sectionByID(ctx, guildID, round.SolvedCategoryID)
		if err == nil {
			return section, nil
		}
		if !errors.Is(err, workspace.ErrNotFound) {
			return nil, err
		}
		// Cached section vanished; fall through and recreate.
	}

	name := solvedPrefix + round.Name
	section, err := r.findSection(ctx, guildID, name)
	if errors.Is(err, workspace.ErrNotFound) {
		position := 0
		if active, aerr := r.sectionByID(ctx, guildID, round.CategoryID); aerr == nil {
			position = active.Position
		}
		section, err = r.createSection(ctx, guildID, name, position)
	}
	if err != nil {
		return nil, err
	}

	round.SolvedCategoryID = section.ID
	if err := r.store.SaveRound(round); err != nil {
		return nil, err
	}
	return section, nil
}

// renameSolvedSheet prefixes the puzzle's sheet with the solution marker.
// Sheets already carrying a marker are left alone, so re-running the scan
// never stacks prefixes.
func (r *Reconciler) renameSolvedSheet(ctx context.Context, p *models.Puzzle) error {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	_, err := r.docs.RenameFile(cctx, p.SheetID, func(current string) string {
		return drive.SolvedName(current, p.Solution)
	})
	return err
}

// deleteScan finalizes puzzles whose delete request survived the grace
// period. The durable record is written before the text channel goes away,
// so a crash mid-delete leaves a row to retry rather than an orphan channel
// that looks alive.
func (r *Reconciler) deleteScan(ctx context.Context, g *models.Guild) error {
	due, err := r.store.PuzzlesToDelete(g.ID, r.now(), r.grace, false)
	if err != nil {
		return err
	}
	for i := range due {
		if err := r.deletePuzzle(ctx, g, &due[i]); err != nil {
			log.Printf("reconcile delete %s/%s error: %v", g.ID, due[i].Name, err)
			continue
		}
		fmt.Fprintf(r.out, "Deleted puzzle %s (round %s)\n", due[i].Name, due[i].RoundName)
	}
	return nil
}

func (r *Reconciler) deletePuzzle(ctx context.Context, g *models.Guild, p *models.Puzzle) error {
	if p.VoiceChannelID != "" {
		if err := r.deleteChannel(ctx, g.ID, p.VoiceChannelID); err != nil && !errors.Is(err, workspace.ErrNotFound) {
			log.Printf("reconcile voice channel delete %s error: %v", p.VoiceChannelID, err)
		}
	}

	if err := r.lc.FinalizeDelete(p); err != nil {
		return err
	}

	// Text channel last: once it is gone the natural key is unreachable,
	// so the row must already say deleted.
	if err := r.deleteChannel(ctx, g.ID, p.ChannelID); err != nil && !errors.Is(err, workspace.ErrNotFound) {
		return err
	}
	return nil
}

// --- per-call timeout wrappers ---

func (r *Reconciler) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.callWait)
}

func (r *Reconciler) sectionByID(ctx context.Context, guildID, id string) (*workspace.Section, error) {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	return r.ws.SectionByID(cctx, guildID, id)
}

func (r *Reconciler) findSection(ctx context.Context, guildID, name string) (*workspace.Section, error) {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	return r.ws.FindSection(cctx, guildID, name)
}

func (r *Reconciler) createSection(ctx context.Context, guildID, name string, position int) (*workspace.Section, error) {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	return r.ws.CreateSection(cctx, guildID, name, position)
}

func (r *Reconciler) moveChannel(ctx context.Context, guildID, channelID, sectionID string) error {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	return r.ws.MoveChannel(cctx, guildID, channelID, sectionID)
}

func (r *Reconciler) deleteChannel(ctx context.Context, guildID, channelID string) error {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	return r.ws.DeleteChannel(cctx, guildID, channelID)
}
