package accounts

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/campusmedia/go-staff-console/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Cache is the single owner of the cached account set. It loads once from
// durable storage, keeps the set in memory, mirrors every mutation back to
// storage, and notifies subscribers on change. Invariant: at most one entry
// per distinct email.
type Cache struct {
	kv  storage.KV
	log zerolog.Logger

	lock    sync.RWMutex
	entries []Entry

	subsLock sync.RWMutex
	subs     map[string]func([]Entry)
}

// NewCache loads the cached set from kv. A malformed stored value is not a
// startup failure: the cache falls back to empty with a warning, and the
// next mutation overwrites the bad value.
func NewCache(ctx context.Context, kv storage.KV, logger zerolog.Logger) (*Cache, error) {
	if kv == nil {
		return nil, errors.New("[NewCache] kv store is required")
	}

	c := &Cache{
		kv:   kv,
		log:  logger,
		subs: make(map[string]func([]Entry)),
	}

	raw, ok, err := kv.Get(ctx, AccountsKey)
	if err != nil {
		return nil, errors.Wrap(err, "[NewCache] load")
	}
	if ok {
		c.entries = parseEntries(raw, logger)
	}

	return c, nil
}

// parseEntries is a validated parse: any shape mismatch yields an empty set
// rather than an error, and entries without an email are dropped.
func parseEntries(raw []byte, logger zerolog.Logger) []Entry {
	var parsed []Entry
	if err := json.Unmarshal(raw, &parsed); err != nil {
		logger.Warn().Err(err).Msg("account cache unreadable, starting empty")
		return nil
	}

	entries := make([]Entry, 0, len(parsed))
	seen := make(map[string]bool)
	for _, e := range parsed {
		email := e.Email()
		if email == "" || seen[email] {
			logger.Warn().Str("email", email).Msg("dropping invalid or duplicate cached account")
			continue
		}
		seen[email] = true
		entries = append(entries, e)
	}
	return entries
}

// List returns a copy of the cached entries.
func (c *Cache) List() []Entry {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Lookup finds the cached entry for email.
func (c *Cache) Lookup(email string) (Entry, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	email = NormalizeEmail(email)
	for _, e := range c.entries {
		if e.Email() == email {
			return e, true
		}
	}
	return Entry{}, false
}

// Contains reports whether email is cached.
func (c *Cache) Contains(email string) bool {
	_, ok := c.Lookup(email)
	return ok
}

// Put appends entry unless its email is already cached (first-write-wins:
// the existing session is not replaced). Returns whether it was added.
func (c *Cache) Put(ctx context.Context, entry Entry) (bool, error) {
	if entry.Email() == "" {
		return false, errors.New("[Cache.Put] entry has no email")
	}

	c.lock.Lock()
	if c.containsLocked(entry.Email()) {
		c.lock.Unlock()
		return false, nil
	}
	c.entries = append(c.entries, entry)
	snapshot := append([]Entry(nil), c.entries...)
	c.lock.Unlock()

	if err := c.persist(ctx, snapshot); err != nil {
		return true, err
	}
	c.notify(snapshot)
	return true, nil
}

// Remove evicts email from the cache. Returns whether an entry was removed.
func (c *Cache) Remove(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)

	c.lock.Lock()
	kept, removed := removeByEmail(c.entries, email)
	if !removed {
		c.lock.Unlock()
		return false, nil
	}
	c.entries = kept
	snapshot := append([]Entry(nil), c.entries...)
	c.lock.Unlock()

	if err := c.persist(ctx, snapshot); err != nil {
		return true, err
	}
	c.notify(snapshot)
	return true, nil
}

// Replace atomically removes removeEmail and adds add (when non-nil and not
// already cached), persisting once. This is the successful-switch
// displacement: the restored account leaves the cache, the displaced one
// takes its place.
func (c *Cache) Replace(ctx context.Context, removeEmail string, add *Entry) error {
	removeEmail = NormalizeEmail(removeEmail)

	c.lock.Lock()
	kept, _ := removeByEmail(c.entries, removeEmail)
	c.entries = kept
	if add != nil && add.Email() != "" && !c.containsLocked(add.Email()) {
		c.entries = append(c.entries, *add)
	}
	snapshot := append([]Entry(nil), c.entries...)
	c.lock.Unlock()

	if err := c.persist(ctx, snapshot); err != nil {
		return err
	}
	c.notify(snapshot)
	return nil
}

// Subscribe registers fn to run after every mutation with the new set.
// The returned function unsubscribes.
func (c *Cache) Subscribe(fn func([]Entry)) func() {
	id := uuid.New().String()

	c.subsLock.Lock()
	c.subs[id] = fn
	c.subsLock.Unlock()

	return func() {
		c.subsLock.Lock()
		delete(c.subs, id)
		c.subsLock.Unlock()
	}
}

func (c *Cache) containsLocked(email string) bool {
	for _, e := range c.entries {
		if e.Email() == email {
			return true
		}
	}
	return false
}

func removeByEmail(entries []Entry, email string) ([]Entry, bool) {
	kept := make([]Entry, 0, len(entries))
	removed := false
	for _, e := range entries {
		if e.Email() == email {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	return kept, removed
}

// persist mirrors the whole set back to storage.
func (c *Cache) persist(ctx context.Context, snapshot []Entry) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "[Cache.persist] marshal")
	}
	if err := c.kv.Set(ctx, AccountsKey, raw); err != nil {
		return errors.Wrap(err, "[Cache.persist] store")
	}
	return nil
}

func (c *Cache) notify(snapshot []Entry) {
	c.subsLock.RLock()
	fns := make([]func([]Entry), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsLock.RUnlock()

	for _, fn := range fns {
		fn(append([]Entry(nil), snapshot...))
	}
}
