package state

import (
	"math/big"

	lru "github.com/hashicorp/golang-lru"

	"github.com/hearthvm/hearth/core/types"
	"github.com/hearthvm/hearth/crypto"
	"github.com/hearthvm/hearth/log"
	"github.com/hearthvm/hearth/rlp"
	"github.com/hearthvm/hearth/trie"
)

// codeCacheSize bounds the content-addressed code cache.
const codeCacheSize = 1024

var logger = log.Default().Module("state")

// StateDB is the journaled facade over accounts, code, and per-contract
// storage. One StateDB serves one in-flight transaction at a time;
// Checkpoint/Commit/Revert follow strict stack discipline matching the
// call-frame nesting.
type StateDB struct {
	trie  *trie.Trie // account trie: keccak(addr) -> rlp(account)
	cache *AccountCache

	storageTries map[types.Address]*trie.Trie
	codeStore    map[types.Hash][]byte // flushed code by hash
	codeCache    *lru.Cache

	refund uint64
	logs   []*types.Log

	// One frame per open checkpoint: the refund counter and log count to
	// restore on revert.
	checkpoints []revPoint
}

type revPoint struct {
	refund uint64
	logLen int
}

// New creates a StateDB over a fresh, empty trie.
func New() *StateDB {
	return NewWithTrie(trie.New())
}

// NewWithTrie creates a StateDB over an existing account trie.
func NewWithTrie(t *trie.Trie) *StateDB {
	codeCache, _ := lru.New(codeCacheSize)
	s := &StateDB{
		trie:         t,
		storageTries: make(map[types.Address]*trie.Trie),
		codeStore:    make(map[types.Hash][]byte),
		codeCache:    codeCache,
	}
	s.cache = NewAccountCache(s.loadAccount)
	return s
}

// loadAccount reads an account record from the trie.
func (s *StateDB) loadAccount(addr types.Address) (types.Account, bool) {
	enc, err := s.trie.Get(crypto.Keccak256(addr.Bytes()))
	if err != nil {
		return types.Account{}, false
	}
	var acct types.Account
	if err := rlp.DecodeBytes(enc, &acct); err != nil {
		logger.Error("undecodable account record", "addr", addr, "err", err)
		return types.Account{}, false
	}
	return acct, true
}

// --- Accounts ---

// CreateAccount materializes a fresh account at addr. An existing balance
// survives creation.
func (s *StateDB) CreateAccount(addr types.Address) {
	prev := s.cache.get(addr)
	acct := types.NewAccount()
	if prev != nil && prev.account.Balance != nil {
		acct.Balance = new(big.Int).Set(prev.account.Balance)
	}
	s.cache.put(addr, acct)
}

// GetAccount returns a copy of the account record at addr.
func (s *StateDB) GetAccount(addr types.Address) types.Account {
	return s.cache.getOrLoad(addr).account.Copy()
}

// PutAccount replaces the account record at addr.
func (s *StateDB) PutAccount(addr types.Address, acct types.Account) {
	s.cache.put(addr, acct)
}

// Warm bulk-preloads accounts into the cache.
func (s *StateDB) Warm(addrs []types.Address) {
	s.cache.Warm(addrs)
}

func (s *StateDB) GetBalance(addr types.Address) *big.Int {
	entry := s.cache.getOrLoad(addr)
	return new(big.Int).Set(entry.ensureBalance())
}

func (s *StateDB) AddBalance(addr types.Address, amount *big.Int) {
	entry := s.cache.getOrLoad(addr)
	entry.account.Balance = new(big.Int).Add(entry.ensureBalance(), amount)
	entry.modified = true
	entry.exists = true
}

func (s *StateDB) SubBalance(addr types.Address, amount *big.Int) {
	entry := s.cache.getOrLoad(addr)
	entry.account.Balance = new(big.Int).Sub(entry.ensureBalance(), amount)
	entry.modified = true
	entry.exists = true
}

// SetBalance overwrites the balance at addr.
func (s *StateDB) SetBalance(addr types.Address, amount *big.Int) {
	entry := s.cache.getOrLoad(addr)
	entry.account.Balance = new(big.Int).Set(amount)
	entry.modified = true
	entry.exists = true
}

func (s *StateDB) GetNonce(addr types.Address) uint64 {
	return s.cache.getOrLoad(addr).account.Nonce
}

func (s *StateDB) SetNonce(addr types.Address, nonce uint64) {
	entry := s.cache.getOrLoad(addr)
	entry.account.Nonce = nonce
	entry.modified = true
	entry.exists = true
}

// Exist reports whether addr has a world-state record.
func (s *StateDB) Exist(addr types.Address) bool {
	return s.cache.getOrLoad(addr).exists
}

// Empty reports whether addr is empty: zero nonce, zero balance, and the
// empty-code hash. Non-existing accounts are empty.
func (s *StateDB) Empty(addr types.Address) bool {
	entry := s.cache.getOrLoad(addr)
	return entry.account.IsEmpty()
}

// --- Code ---

// GetCode returns the contract code at addr.
func (s *StateDB) GetCode(addr types.Address) []byte {
	entry := s.cache.getOrLoad(addr)
	if entry.code != nil {
		return entry.code
	}
	hash := types.BytesToHash(entry.account.CodeHash)
	if hash == types.EmptyCodeHash || hash == (types.Hash{}) {
		return nil
	}
	return s.codeByHash(hash)
}

// codeByHash resolves content-addressed code through the LRU cache.
func (s *StateDB) codeByHash(hash types.Hash) []byte {
	if cached, ok := s.codeCache.Get(hash); ok {
		return cached.([]byte)
	}
	code, ok := s.codeStore[hash]
	if !ok {
		return nil
	}
	s.codeCache.Add(hash, code)
	return code
}

// SetCode stores code for addr and updates its code hash.
func (s *StateDB) SetCode(addr types.Address, code []byte) {
	entry := s.cache.getOrLoad(addr)
	entry.code = code
	entry.account.CodeHash = crypto.Keccak256(code)
	entry.modified = true
	entry.exists = true
}

func (s *StateDB) GetCodeHash(addr types.Address) types.Hash {
	entry := s.cache.getOrLoad(addr)
	if !entry.exists {
		return types.Hash{}
	}
	return types.BytesToHash(entry.account.CodeHash)
}

func (s *StateDB) GetCodeSize(addr types.Address) int {
	return len(s.GetCode(addr))
}

// --- Storage ---

// storageTrie lazily materializes the per-account storage trie, aligning
// its checkpoint stack with the frames already open.
func (s *StateDB) storageTrie(addr types.Address) *trie.Trie {
	if t, ok := s.storageTries[addr]; ok {
		return t
	}
	t := trie.New()
	// A trie loaded mid-transaction had these same contents at every
	// open checkpoint, so pre-seeding the stack keeps depths aligned.
	for i := 0; i < len(s.checkpoints); i++ {
		t.Checkpoint()
	}
	s.storageTries[addr] = t
	return t
}

// GetState reads the storage word at (addr, key).
func (s *StateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	t := s.storageTrie(addr)
	enc, err := t.Get(crypto.Keccak256(key.Bytes()))
	if err != nil {
		return types.Hash{}
	}
	var val []byte
	if err := rlp.DecodeBytes(enc, &val); err != nil {
		return types.Hash{}
	}
	return types.BytesToHash(val)
}

// SetState writes the storage word at (addr, key). A zero value deletes
// the slot.
func (s *StateDB) SetState(addr types.Address, key, value types.Hash) {
	t := s.storageTrie(addr)
	hashedKey := crypto.Keccak256(key.Bytes())
	if value == (types.Hash{}) {
		t.Delete(hashedKey)
	} else {
		enc, _ := rlp.EncodeToBytes(trimLeftZeros(value.Bytes()))
		t.Put(hashedKey, enc)
	}
	entry := s.cache.getOrLoad(addr)
	entry.modified = true
	entry.exists = true
}

// trimLeftZeros strips leading zero bytes so storage values encode as
// minimal RLP integers.
func trimLeftZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

// --- Self destruct ---

// SelfDestruct marks addr for deletion at finalization and zeroes its
// balance; the beneficiary credit happens in the VM before this call.
func (s *StateDB) SelfDestruct(addr, beneficiary types.Address) {
	entry := s.cache.getOrLoad(addr)
	entry.suicided = true
	entry.heir = beneficiary
	entry.account.Balance = new(big.Int)
	entry.modified = true
}

func (s *StateDB) HasSelfDestructed(addr types.Address) bool {
	entry := s.cache.get(addr)
	return entry != nil && entry.suicided
}

// --- Logs and refunds ---

// AddLog appends a log entry; a reverted frame drops it again.
func (s *StateDB) AddLog(l *types.Log) {
	s.logs = append(s.logs, l)
}

// Logs returns all logs accumulated since the last Finalise.
func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

// AddRefund accrues gas refund from storage clears and self-destructs.
func (s *StateDB) AddRefund(gas uint64) {
	s.refund += gas
}

// Refund returns the accumulated refund counter.
func (s *StateDB) Refund() uint64 {
	return s.refund
}

// --- Checkpointing ---

// Checkpoint opens a savepoint across the account cache, the account
// trie, and every live storage trie.
func (s *StateDB) Checkpoint() {
	s.cache.Checkpoint()
	s.trie.Checkpoint()
	for _, t := range s.storageTries {
		t.Checkpoint()
	}
	s.checkpoints = append(s.checkpoints, revPoint{refund: s.refund, logLen: len(s.logs)})
}

// Commit closes the most recent savepoint, keeping its changes.
func (s *StateDB) Commit() {
	if len(s.checkpoints) == 0 {
		return
	}
	s.checkpoints = s.checkpoints[:len(s.checkpoints)-1]
	s.cache.Commit()
	s.trie.Commit()
	for _, t := range s.storageTries {
		t.Commit()
	}
}

// Revert closes the most recent savepoint and restores the state visible
// when it was opened, dropping logs and refunds accrued since.
func (s *StateDB) Revert() {
	if len(s.checkpoints) == 0 {
		return
	}
	rp := s.checkpoints[len(s.checkpoints)-1]
	s.checkpoints = s.checkpoints[:len(s.checkpoints)-1]
	s.refund = rp.refund
	s.logs = s.logs[:rp.logLen]
	s.cache.Revert()
	s.trie.Revert()
	for addr, t := range s.storageTries {
		t.Revert()
		// Tries first materialized inside the reverted frame fall back
		// to empty and can be dropped.
		if t.CheckpointDepth() == 0 && t.Empty() && len(s.checkpoints) == 0 {
			delete(s.storageTries, addr)
		}
	}
}

// CheckpointDepth returns the number of open savepoints.
func (s *StateDB) CheckpointDepth() int {
	return len(s.checkpoints)
}

// --- Finalization ---

// Finalise deletes self-destructed accounts and clears the per-tx refund
// counter and log buffer. Call once per transaction, after the refund has
// been paid out.
func (s *StateDB) Finalise() {
	var dead []types.Address
	s.cache.each(func(addr types.Address, entry *cacheEntry) {
		if entry.suicided {
			dead = append(dead, addr)
		}
	})
	for _, addr := range dead {
		s.cache.drop(addr)
		delete(s.storageTries, addr)
		s.trie.Delete(crypto.Keccak256(addr.Bytes()))
	}
	s.refund = 0
	s.logs = nil
}

// Flush serializes every dirty account and its storage trie into the
// account trie and returns the resulting state root. Empty newborn
// accounts are discarded instead of written.
func (s *StateDB) Flush() types.Hash {
	s.cache.each(func(addr types.Address, entry *cacheEntry) {
		if !entry.modified {
			return
		}
		if !entry.exists {
			return
		}
		if entry.account.IsEmpty() && !entry.inTrie && s.storageTries[addr] == nil {
			// Empty newborns never reach the trie.
			return
		}
		if t, ok := s.storageTries[addr]; ok {
			entry.account.Root = t.Hash()
		}
		if entry.code != nil {
			hash := types.BytesToHash(entry.account.CodeHash)
			s.codeStore[hash] = entry.code
			s.codeCache.Add(hash, entry.code)
			entry.code = nil
		}
		enc, err := rlp.EncodeToBytes(entry.account)
		if err != nil {
			logger.Error("unencodable account", "addr", addr, "err", err)
			return
		}
		s.trie.Put(crypto.Keccak256(addr.Bytes()), enc)
		entry.modified = false
		entry.inTrie = true
	})
	return s.trie.Hash()
}

// Root flushes and returns the current state root.
func (s *StateDB) Root() types.Hash {
	return s.Flush()
}
