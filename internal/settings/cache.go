package settings

import (
	"sync"

	"github.com/pwolcott/huntmaster/internal/models"
	"github.com/pwolcott/huntmaster/internal/store"
)

// Cache is a read-through cache of guild settings rows. Every settings write
// must invalidate the guild's entry; the bot and the reconciler share one
// Cache instance so a write from either side is visible to both.
type Cache struct {
	mu     sync.Mutex
	store  *store.Store
	guilds map[string]*models.Guild
}

// NewCache creates a Cache over the given store.
func NewCache(s *store.Store) *Cache {
	return &Cache{store: s, guilds: make(map[string]*models.Guild)}
}

// Guild returns the guild settings row, loading and creating it on first use.
func (c *Cache) Guild(guildID string) (*models.Guild, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.guilds[guildID]; ok {
		return g, nil
	}
	g, err := c.store.GetOrCreateGuild(guildID)
	if err != nil {
		return nil, err
	}
	c.guilds[guildID] = g
	return g, nil
}

// Invalidate drops the cached entry for a guild. Called after every write.
func (c *Cache) Invalidate(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guilds, guildID)
}

// UpdateGuildSetting applies one setting write to the guild row, persists it,
// and invalidates the cache entry.
func (c *Cache) UpdateGuildSetting(guildID, key, raw string) (old, updated string, err error) {
	g, err := c.store.GetOrCreateGuild(guildID)
	if err != nil {
		return "", "", err
	}
	old, updated, err = UpdateGuild(g, key, raw)
	if err != nil {
		return "", "", err
	}
	if err := c.store.SaveGuild(g); err != nil {
		return "", "", err
	}
	c.Invalidate(guildID)
	return old, updated, nil
}
