package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/nexus"
	"github.com/pwolcott/huntmaster/internal/store"
)

const (
	defaultTickInterval  = 30 * time.Second
	defaultNexusInterval = 60 * time.Second
	defaultSweepIdle     = 30 * 24 * time.Hour
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// DaemonOpts holds the loop cadence for RunDaemon.
type DaemonOpts struct {
	TickInterval  time.Duration // archive/delete scan cadence; defaults to 30s
	NexusInterval time.Duration // nexus refresh cadence; defaults to 60s
	SweepSchedule string        // 5-field cron for the stale-hunt sweep; empty disables
	SweepIdle     time.Duration // inactivity window before a hunt is swept; defaults to 30 days
}

// Status is a snapshot of the daemon's progress, for the ops dashboard.
type Status struct {
	Running   bool       `json:"running"`
	TickCount uint64     `json:"tick_count"`
	LastTick  *time.Time `json:"last_tick,omitempty"`
	LastNexus *time.Time `json:"last_nexus,omitempty"`
	LastSweep *time.Time `json:"last_sweep,omitempty"`
}

// Status returns the current daemon snapshot.
func (r *Reconciler) Status() Status {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	return r.status
}

func (r *Reconciler) setStatus(mutate func(*Status)) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	mutate(&r.status)
}

// RunDaemon runs the reconciliation loop until the context is cancelled. Each
// pass runs the archive/delete tick, then the nexus refresh and stale-hunt
// sweep when due. A failing phase is logged and never stops the loop.
func (r *Reconciler) RunDaemon(ctx context.Context, opts DaemonOpts) error {
	tickEvery := opts.TickInterval
	if tickEvery <= 0 {
		tickEvery = defaultTickInterval
	}
	nexusEvery := opts.NexusInterval
	if nexusEvery <= 0 {
		nexusEvery = defaultNexusInterval
	}
	sweepIdle := opts.SweepIdle
	if sweepIdle <= 0 {
		sweepIdle = defaultSweepIdle
	}

	var sweepSched cron.Schedule
	if opts.SweepSchedule != "" {
		sched, err := cronParser.Parse(opts.SweepSchedule)
		if err != nil {
			return fmt.Errorf("reconcile: parse sweep schedule %q: %w", opts.SweepSchedule, err)
		}
		sweepSched = sched
	}

	fmt.Fprintf(r.out, "Reconciler starting (tick every %s)...\n", tickEvery)
	r.setStatus(func(s *Status) { s.Running = true })
	defer r.setStatus(func(s *Status) { s.Running = false })

	var nextNexus time.Time
	var nextSweep time.Time
	if sweepSched != nil {
		nextSweep = sweepSched.Next(r.now())
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(r.out, "Reconciler stopped.\n")
			return nil
		default:
		}

		now := r.now()

		if err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Printf("reconcile tick error: %v", err)
		}
		r.setStatus(func(s *Status) {
			s.TickCount++
			t := now
			s.LastTick = &t
		})

		if !now.Before(nextNexus) {
			if err := r.RefreshNexus(ctx); err != nil && ctx.Err() == nil {
				log.Printf("reconcile nexus refresh error: %v", err)
			}
			nextNexus = now.Add(nexusEvery)
			r.setStatus(func(s *Status) {
				t := now
				s.LastNexus = &t
			})
		}

		if sweepSched != nil && !now.Before(nextSweep) {
			if err := r.SweepStaleHunts(ctx, sweepIdle); err != nil && ctx.Err() == nil {
				log.Printf("reconcile hunt sweep error: %v", err)
			}
			nextSweep = sweepSched.Next(now)
			r.setStatus(func(s *Status) {
				t := now
				s.LastSweep = &t
			})
		}

		sleepWithContext(ctx, tickEvery)
	}
}

// RefreshNexus rewrites every active hunt's nexus sheet from the store.
func (r *Reconciler) RefreshNexus(ctx context.Context) error {
	if r.docs == nil {
		return nil
	}
	guilds, err := r.store.AllGuilds()
	if err != nil {
		return fmt.Errorf("reconcile: list guilds: %w", err)
	}
	for i := range guilds {
		hunts, err := r.store.ActiveHunts(guilds[i].ID)
		if err != nil {
			log.Printf("reconcile nexus list hunts %s error: %v", guilds[i].ID, err)
			continue
		}
		for j := range hunts {
			if hunts[j].NexusSheetID == "" {
				continue
			}
			if err := r.refreshHuntNexus(ctx, &hunts[j]); err != nil {
				log.Printf("reconcile nexus %s error: %v", hunts[j].DisplayName(), err)
			}
		}
	}
	return nil
}

func (r *Reconciler) refreshHuntNexus(ctx context.Context, h *models.Hunt) error {
	rounds, err := r.store.RoundsInHunt(h.ID)
	if err != nil {
		return err
	}
	var puzzles []models.Puzzle
	for _, round := range rounds {
		ps, err := r.store.PuzzlesInRound(round.ID)
		if err != nil {
			return err
		}
		puzzles = append(puzzles, ps...)
	}
	puzzles = store.SortByRoundStart(puzzles)

	noteCounts := make(map[uint]int)
	for _, p := range puzzles {
		notes, err := r.store.Notes(p.ID)
		if err != nil {
			return err
		}
		noteCounts[p.ID] = len(notes)
	}

	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	return nexus.Update(cctx, r.docs, h.NexusSheetID, puzzles, noteCounts)
}

// SweepStaleHunts ends active hunts with no puzzle activity inside the idle
// window. Ended hunts keep their rows; only end_time is written.
func (r *Reconciler) SweepStaleHunts(ctx context.Context, idle time.Duration) error {
	guilds, err := r.store.AllGuilds()
	if err != nil {
		return fmt.Errorf("reconcile: list guilds: %w", err)
	}
	cutoff := r.now().Add(-idle)
	for i := range guilds {
		stale, err := r.store.StaleActiveHunts(guilds[i].ID, cutoff)
		if err != nil {
			log.Printf("reconcile sweep %s error: %v", guilds[i].ID, err)
			continue
		}
		for j := range stale {
			if err := r.store.EndHunt(&stale[j], r.now()); err != nil {
				log.Printf("reconcile end hunt %s error: %v", stale[j].DisplayName(), err)
				continue
			}
			fmt.Fprintf(r.out, "Ended stale hunt %s\n", stale[j].DisplayName())
		}
	}
	return nil
}

// sleepWithContext sleeps for duration d, returning early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
