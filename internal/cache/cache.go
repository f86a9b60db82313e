// Package cache keeps users and channels fetched from the game API so the
// engine can resolve ids to names without round-trips.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/steel-chat/steel/pkg/chat"
)

// ErrNoFetcher is returned by get-or-fetch lookups when no API client has
// been attached.
var ErrNoFetcher = errors.New("cache: api fetcher not set")

// Channel is a chat channel known to the backend.
type Channel struct {
	ID   int
	Name string
}

// Fetcher resolves cache misses against the game API.
type Fetcher interface {
	FetchUser(ctx context.Context, username string) (chat.User, error)
	FetchChannel(ctx context.Context, channelID int) (Channel, error)
}

// Cache is a concurrency-safe user/channel lookup table.
type Cache struct {
	mu        sync.RWMutex
	users     map[int]chat.User
	usernames map[string]int
	channels  map[int]Channel
	fetcher   Fetcher
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		users:     make(map[int]chat.User),
		usernames: make(map[string]int),
		channels:  make(map[int]Channel),
	}
}

// SetFetcher attaches the API client used for cache misses.
func (c *Cache) SetFetcher(f Fetcher) {
	c.mu.Lock()
	c.fetcher = f
	c.mu.Unlock()
}

// User returns a cached user by id.
func (c *Cache) User(id int) (chat.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	return u, ok
}

// Username returns the cached name of a user id.
func (c *Cache) Username(id int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	return u.Name, ok
}

// UserID resolves a username (any spelling) to a cached user id.
func (c *Cache) UserID(username string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.usernames[chat.NormalizeUsername(username)]
	return id, ok
}

// InsertUser adds a user to the cache, replacing a stale entry.
func (c *Cache) InsertUser(u chat.User) {
	c.mu.Lock()
	c.users[u.ID] = u
	c.usernames[chat.NormalizeUsername(u.Name)] = u.ID
	c.mu.Unlock()
}

// InsertUsers adds users in bulk.
func (c *Cache) InsertUsers(users []chat.User) {
	c.mu.Lock()
	for _, u := range users {
		c.users[u.ID] = u
		c.usernames[chat.NormalizeUsername(u.Name)] = u.ID
	}
	c.mu.Unlock()
}

// Channel returns a cached channel by id.
func (c *Cache) Channel(id int) (Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[id]
	return ch, ok
}

// FindChannel looks a channel up by name, case-insensitively.
func (c *Cache) FindChannel(name string) (Channel, bool) {
	name = strings.ToLower(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// InsertChannel adds a channel to the cache.
func (c *Cache) InsertChannel(ch Channel) {
	c.mu.Lock()
	c.channels[ch.ID] = ch
	c.mu.Unlock()
}

// InsertChannels adds channels in bulk.
func (c *Cache) InsertChannels(channels []Channel) {
	c.mu.Lock()
	for _, ch := range channels {
		c.channels[ch.ID] = ch
	}
	c.mu.Unlock()
}

// Clear drops everything, typically on disconnect.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.users = make(map[int]chat.User)
	c.usernames = make(map[string]int)
	c.channels = make(map[int]Channel)
	c.mu.Unlock()
}

// GetOrFetchUserID resolves a username, hitting the API on a miss and
// caching the result.
func (c *Cache) GetOrFetchUserID(ctx context.Context, username string) (int, error) {
	if id, ok := c.UserID(username); ok {
		return id, nil
	}

	c.mu.RLock()
	fetcher := c.fetcher
	c.mu.RUnlock()
	if fetcher == nil {
		return 0, ErrNoFetcher
	}

	u, err := fetcher.FetchUser(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("fetch user %q: %w", username, err)
	}
	c.InsertUser(u)
	return u.ID, nil
}

// GetOrFetchChannel resolves a channel id, hitting the API on a miss and
// caching the result.
func (c *Cache) GetOrFetchChannel(ctx context.Context, channelID int) (Channel, error) {
	if ch, ok := c.Channel(channelID); ok {
		return ch, nil
	}

	c.mu.RLock()
	fetcher := c.fetcher
	c.mu.RUnlock()
	if fetcher == nil {
		return Channel{}, ErrNoFetcher
	}

	ch, err := fetcher.FetchChannel(ctx, channelID)
	if err != nil {
		return Channel{}, fmt.Errorf("fetch channel %d: %w", channelID, err)
	}
	c.InsertChannel(ch)
	return ch, nil
}
