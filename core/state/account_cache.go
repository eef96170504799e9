// Package state implements the journaled world-state store: a write-back
// account cache and per-contract storage tries layered over the account
// trie, with nested checkpoint/commit/revert mirroring call-frame nesting.
package state

import (
	"math/big"

	"github.com/hearthvm/hearth/core/types"
)

// cacheEntry is the in-cache record of one account.
type cacheEntry struct {
	account  types.Account
	code     []byte // pending code, nil unless set during this run
	modified bool   // needs write-back on flush
	exists   bool   // account present in the world state
	inTrie   bool   // loaded from (or already flushed to) the trie
	suicided bool   // marked by SELFDESTRUCT, deleted at finalization
	heir     types.Address
}

func (e *cacheEntry) copy() *cacheEntry {
	cp := &cacheEntry{
		account:  e.account.Copy(),
		modified: e.modified,
		exists:   e.exists,
		inTrie:   e.inTrie,
		suicided: e.suicided,
		heir:     e.heir,
	}
	if e.code != nil {
		cp.code = make([]byte, len(e.code))
		copy(cp.code, e.code)
	}
	return cp
}

// loaderFunc fetches an account from the backing trie. ok is false when
// the address has no record there.
type loaderFunc func(types.Address) (types.Account, bool)

// AccountCache is a write-back cache of account records with a stack of
// full snapshots. At most one entry exists per address; the modified flag
// marks exactly the set needing write-back.
type AccountCache struct {
	entries   map[types.Address]*cacheEntry
	snapshots []map[types.Address]*cacheEntry
	loader    loaderFunc
}

// NewAccountCache creates a cache that falls back to loader on miss.
func NewAccountCache(loader loaderFunc) *AccountCache {
	return &AccountCache{
		entries: make(map[types.Address]*cacheEntry),
		loader:  loader,
	}
}

// get returns the cached entry or nil.
func (c *AccountCache) get(addr types.Address) *cacheEntry {
	return c.entries[addr]
}

// getOrLoad returns the cached entry, loading it from the trie on a miss.
// A missing account materializes as an empty, non-existing record that is
// not marked modified.
func (c *AccountCache) getOrLoad(addr types.Address) *cacheEntry {
	if entry, ok := c.entries[addr]; ok {
		return entry
	}
	entry := &cacheEntry{account: types.NewAccount()}
	if c.loader != nil {
		if acct, ok := c.loader(addr); ok {
			entry.account = acct
			entry.exists = true
			entry.inTrie = true
		}
	}
	c.entries[addr] = entry
	return entry
}

// Warm bulk-preloads a set of addresses into the cache.
func (c *AccountCache) Warm(addrs []types.Address) {
	for _, addr := range addrs {
		c.getOrLoad(addr)
	}
}

// put replaces the account record for addr and marks it modified.
func (c *AccountCache) put(addr types.Address, acct types.Account) {
	entry := c.getOrLoad(addr)
	entry.account = acct
	entry.modified = true
	entry.exists = true
}

// Checkpoint pushes a snapshot of the whole cache.
func (c *AccountCache) Checkpoint() {
	snap := make(map[types.Address]*cacheEntry, len(c.entries))
	for addr, entry := range c.entries {
		snap[addr] = entry.copy()
	}
	c.snapshots = append(c.snapshots, snap)
}

// Revert pops the top snapshot and restores it.
func (c *AccountCache) Revert() {
	if len(c.snapshots) == 0 {
		return
	}
	c.entries = c.snapshots[len(c.snapshots)-1]
	c.snapshots = c.snapshots[:len(c.snapshots)-1]
}

// Commit pops the top snapshot, keeping the current contents.
func (c *AccountCache) Commit() {
	if len(c.snapshots) == 0 {
		return
	}
	c.snapshots = c.snapshots[:len(c.snapshots)-1]
}

// CheckpointDepth returns the number of open snapshots.
func (c *AccountCache) CheckpointDepth() int {
	return len(c.snapshots)
}

// Len returns the number of resident entries.
func (c *AccountCache) Len() int {
	return len(c.entries)
}

// each visits every resident entry.
func (c *AccountCache) each(fn func(types.Address, *cacheEntry)) {
	for addr, entry := range c.entries {
		fn(addr, entry)
	}
}

// drop removes an entry from the cache.
func (c *AccountCache) drop(addr types.Address) {
	delete(c.entries, addr)
}

// ensureBalance returns a non-nil balance for the entry.
func (e *cacheEntry) ensureBalance() *big.Int {
	if e.account.Balance == nil {
		e.account.Balance = new(big.Int)
	}
	return e.account.Balance
}
