// Package rounds maps workspace categories onto rounds and decides which
// hunt a round belongs to.
package rounds

import (
	"errors"
	"fmt"
	"time"

	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/store"
)

// HuntNotFoundError reports an explicit hunt name that resolves to nothing.
// Explicit names are user input and are never auto-created, so a typo
// surfaces here instead of silently spawning a hunt.
type HuntNotFoundError struct {
	GuildID string
	Name    string
}

func (e *HuntNotFoundError) Error() string {
	return fmt.Sprintf("rounds: no hunt named %q in guild %s", e.Name, e.GuildID)
}

// Resolver resolves categories to rounds and attaches rounds to hunts.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// ResolveRound returns the round for the category, creating one with no hunt
// linkage the first time the category is seen.
func (r *Resolver) ResolveRound(guildID, categoryID, name string) (*models.Round, error) {
	round, _, err := r.store.GetOrCreateRound(guildID, categoryID, name)
	return round, err
}

// AttachOpts selects how a round finds its hunt. Exactly one of HuntName and
// FromCategoryID should be set.
type AttachOpts struct {
	// HuntName looks the hunt up by name; the hunt must already exist.
	HuntName string
	// FromCategoryID inherits the hunt of the category the round was
	// created from, creating a fresh ownerless hunt if the source round
	// has none. Inheritance is structural plumbing and never blocks.
	FromCategoryID string
}

// AttachHunt decides the round's hunt linkage. The decision is made once:
// a round that already has a hunt is left unchanged.
func (r *Resolver) AttachHunt(round *models.Round, opts AttachOpts) (*models.Hunt, error) {
	if round.HuntID != nil {
		return r.store.Hunt(*round.HuntID)
	}

	if opts.HuntName != "" {
		hunt, err := r.store.HuntByName(round.GuildID, opts.HuntName)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &HuntNotFoundError{GuildID: round.GuildID, Name: opts.HuntName}
		}
		if err != nil {
			return nil, err
		}
		return hunt, r.link(round, hunt)
	}

	if opts.FromCategoryID != "" {
		source, err := r.store.RoundByCategory(opts.FromCategoryID)
		if err == nil && source.HuntID != nil {
			hunt, err := r.store.Hunt(*source.HuntID)
			if err != nil {
				return nil, err
			}
			return hunt, r.link(round, hunt)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Source category is untracked or its round has no hunt: start a
		// fresh ownerless hunt and share it with the source round if one
		// exists.
		hunt, err := r.freshHunt(round.GuildID)
		if err != nil {
			return nil, err
		}
		if source != nil {
			if err := r.link(source, hunt); err != nil {
				return nil, err
			}
		}
		return hunt, r.link(round, hunt)
	}

	hunt, err := r.freshHunt(round.GuildID)
	if err != nil {
		return nil, err
	}
	return hunt, r.link(round, hunt)
}

func (r *Resolver) freshHunt(guildID string) (*models.Hunt, error) {
	now := time.Now().UTC()
	hunt := &models.Hunt{GuildID: guildID, StartTime: &now}
	if err := r.store.CreateHunt(hunt); err != nil {
		return nil, err
	}
	return hunt, nil
}

func (r *Resolver) link(round *models.Round, hunt *models.Hunt) error {
	round.HuntID = &hunt.ID
	return r.store.SaveRound(round)
}
