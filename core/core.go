// Package core implements the typed keyspace: a single logical namespace
// binding each key to exactly one of five value kinds, plus the generic
// operations (KEYS, DEL, TYPE, EXPIRE, PERSIST, TTL) that apply regardless
// of kind.
package core

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mshaverdo/radish/expire"
)

// KV is an ordered key/value pair, used for MSET/HMSET argument lists where
// argument order (not map iteration order) must be preserved for arity
// bookkeeping.
type KV struct {
	Key, Value string
}

// Core is the single-owner, synchronous typed keyspace. All exported
// methods run a whole logical command to completion under Core's own lock,
// satisfying the command-granularity atomicity the dispatcher and snapshot
// engine both rely on -- including commands that touch several keys (MSET,
// DEL), which a purely per-bucket lock could not make atomic on its own.
type Core struct {
	storage *storage
	timers  *expire.TimerSet

	mu       sync.Mutex
	modCount int64

	now func() time.Time
}

// New constructs an empty Core.
func New() *Core {
	return &Core{
		storage: newStorage(),
		timers:  expire.New(),
		now:     time.Now,
	}
}

func (c *Core) addMod(n int) {
	if n > 0 {
		atomic.AddInt64(&c.modCount, int64(n))
	}
}

// ModCount returns the cumulative mutation count since the last reset.
func (c *Core) ModCount() int64 { return atomic.LoadInt64(&c.modCount) }

// ResetModCount zeroes the mutation counter. Called by the snapshot policy
// after a save.
func (c *Core) ResetModCount() { atomic.StoreInt64(&c.modCount, 0) }

// removeKey deletes key from storage and cancels any outstanding timer for
// it, reporting whether it had actually been present.
func (c *Core) removeKey(key string) bool {
	if !c.storage.delete(key) {
		return false
	}
	c.timers.Cancel(key)
	return true
}

// fireExpire is the timer callback installed for key's deadline. It only
// deletes the key if the item's current deadline still equals the one this
// callback was scheduled for -- a PERSIST, EXPIRE, or overwriting write in
// between installs a fresh *Item with a different deadline, making this a
// no-op instead of a lost cancellation race.
func (c *Core) fireExpire(key string, deadline int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.storage.get(key)
	if item == nil || item.expireAt != deadline {
		return
	}
	c.storage.delete(key)
	c.addMod(1)
}

// ---------------------------------------------------------------- Generic

// Keys returns every key matching the glob pattern.
func (c *Core) Keys(pattern string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.storage.keys()
	result := make([]string, 0, len(all))
	for _, k := range all {
		if matchGlob(pattern, k) {
			result = append(result, k)
		}
	}
	return result
}

// Del removes each listed key and returns the count actually removed.
func (c *Core) Del(keys []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, k := range keys {
		if c.removeKey(k) {
			count++
		}
	}
	c.addMod(count)
	return count
}

// Type returns the kind name for key, or "none" if key is absent.
func (c *Core) Type(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.storage.get(key)
	if item == nil {
		return "none"
	}
	return item.Kind().String()
}

// Expire installs a deadline of now+seconds on key, replacing any existing
// one. Returns 0 if key is absent, 1 otherwise. seconds <= 0 installs a
// deadline that has already elapsed, so the timer fires (and the key is
// removed) right away.
func (c *Core) Expire(key string, seconds int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.storage.get(key)
	if item == nil {
		return 0
	}

	deadline := c.now().Unix() + int64(seconds)
	c.storage.set(key, item.withExpireAt(deadline))
	c.timers.Install(key, time.Duration(seconds)*time.Second, func() {
		c.fireExpire(key, deadline)
	})
	c.addMod(1)
	return 1
}

// Persist cancels key's deadline, if any, returning 1 if one was removed.
func (c *Core) Persist(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.storage.get(key)
	if item == nil || item.expireAt == 0 {
		return 0
	}

	c.storage.set(key, item.withExpireAt(0))
	c.timers.Cancel(key)
	c.addMod(1)
	return 1
}

// Ttl returns -2 if key is absent, -1 if present without a deadline, or the
// remaining whole seconds until the deadline otherwise.
func (c *Core) Ttl(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.storage.get(key)
	if item == nil {
		return -2
	}
	if item.expireAt == 0 {
		return -1
	}

	remaining := item.expireAt - c.now().Unix()
	if remaining < 0 {
		remaining = 0
	}
	return int(remaining)
}

// ---------------------------------------------------------------- Strings

// Set writes key to hold value, clearing any existing deadline.
func (c *Core) Set(key, value string) {
	c.MSet([]KV{{Key: key, Value: value}})
}

// SetEx writes key to hold value and sets its expiration to seconds from
// now. seconds <= 0 installs an already-elapsed deadline, so the key is
// removed as soon as its timer fires.
func (c *Core) SetEx(key, value string, seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := c.now().Unix() + int64(seconds)
	c.storage.set(key, newStringItem(value).withExpireAt(deadline))
	c.timers.Install(key, time.Duration(seconds)*time.Second, func() {
		c.fireExpire(key, deadline)
	})
	c.addMod(1)
}

// MSet writes every pair, clearing any existing deadlines.
func (c *Core) MSet(pairs []KV) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range pairs {
		c.storage.set(p.Key, newStringItem(p.Value))
		c.timers.Cancel(p.Key)
	}
	c.addMod(len(pairs))
}

// Get returns key's string value. ok is false if key is absent.
func (c *Core) Get(key string) (value string, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.storage.get(key)
	if item == nil {
		return "", false, nil
	}
	if item.Kind() != KindString {
		return "", false, ErrWrongType
	}
	return item.str, true, nil
}

// MGet returns one entry per key: nil if the key is absent or holds a
// non-string value, a pointer to its value otherwise. Unlike Get, a
// wrong-kind key does not fail the whole call -- it renders as nil, same
// as a missing key, so one stale key can't blank out the rest of a bulk
// read.
func (c *Core) MGet(keys []string) []*string {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*string, len(keys))
	for i, k := range keys {
		item := c.storage.get(k)
		if item == nil || item.Kind() != KindString {
			continue
		}
		v := item.str
		result[i] = &v
	}
	return result
}

// ------------------------------------------------------------------ Hash

func (c *Core) hashOf(key string) (map[string]string, error) {
	item := c.storage.get(key)
	if item == nil {
		return nil, nil
	}
	if item.Kind() != KindHash {
		return nil, ErrWrongType
	}
	return item.hash, nil
}

// HSet sets field in the hash stored at key to value, creating the hash if
// absent. Returns 1 if field was newly added, 0 if it already existed.
func (c *Core) HSet(key, field, value string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, err := c.hashOf(key)
	if err != nil {
		return 0, err
	}

	next := make(map[string]string, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	_, existed := next[field]
	next[field] = value

	c.storage.set(key, newHashItem(next))
	c.addMod(1)

	if existed {
		return 0, nil
	}
	return 1, nil
}

// HMSet sets every listed field, creating the hash if absent.
func (c *Core) HMSet(key string, pairs []KV) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, err := c.hashOf(key)
	if err != nil {
		return err
	}

	next := make(map[string]string, len(old)+len(pairs))
	for k, v := range old {
		next[k] = v
	}
	for _, p := range pairs {
		next[p.Key] = p.Value
	}

	c.storage.set(key, newHashItem(next))
	c.addMod(len(pairs))
	return nil
}

// HGet returns the value of field in the hash stored at key.
func (c *Core) HGet(key, field string) (value string, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.hashOf(key)
	if err != nil {
		return "", false, err
	}
	v, ok := hash[field]
	return v, ok, nil
}

// HMGet returns one entry per field: nil if the field (or key) is absent.
func (c *Core) HMGet(key string, fields []string) ([]*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.hashOf(key)
	if err != nil {
		return nil, err
	}

	result := make([]*string, len(fields))
	for i, f := range fields {
		if v, ok := hash[f]; ok {
			cp := v
			result[i] = &cp
		}
	}
	return result, nil
}

// HLen returns the number of fields in the hash stored at key, 0 if absent.
func (c *Core) HLen(key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.hashOf(key)
	if err != nil {
		return 0, err
	}
	return len(hash), nil
}

// HKeys returns all field names in the hash stored at key.
func (c *Core) HKeys(key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.hashOf(key)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(hash))
	for f := range hash {
		result = append(result, f)
	}
	return result, nil
}

// HGetAll returns all fields and values of the hash stored at key, as
// alternating field, value entries.
func (c *Core) HGetAll(key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.hashOf(key)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, 2*len(hash))
	for f, v := range hash {
		result = append(result, f, v)
	}
	return result, nil
}

// ------------------------------------------------------------------ List

func (c *Core) listOf(key string) ([]string, error) {
	item := c.storage.get(key)
	if item == nil {
		return nil, nil
	}
	if item.Kind() != KindList {
		return nil, ErrWrongType
	}
	return item.list, nil
}

// storeOrDropList installs the new list, or removes key entirely if the
// list is now empty -- a list must never exist as an empty container.
func (c *Core) storeOrDropList(key string, list []string) {
	if len(list) == 0 {
		c.storage.delete(key)
		return
	}
	c.storage.set(key, newListItem(list))
}

// LPush prepends values to the head of the list at key, in argument order,
// so the last argument ends up at the new head. Returns the new length.
func (c *Core) LPush(key string, values []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listOf(key)
	if err != nil {
		return 0, err
	}

	for _, v := range values {
		list = append([]string{v}, list...)
	}

	c.storeOrDropList(key, list)
	c.addMod(len(values))
	return len(list), nil
}

// RPush appends values to the tail of the list at key, in argument order.
// Returns the new length.
func (c *Core) RPush(key string, values []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listOf(key)
	if err != nil {
		return 0, err
	}

	list = append(list, values...)

	c.storeOrDropList(key, list)
	c.addMod(len(values))
	return len(list), nil
}

// LPop removes and returns the head of the list at key, nil if empty/absent.
func (c *Core) LPop(key string) (*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listOf(key)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	head := list[0]
	c.storeOrDropList(key, list[1:])
	c.addMod(1)
	return &head, nil
}

// RPop removes and returns the tail of the list at key, nil if empty/absent.
func (c *Core) RPop(key string) (*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listOf(key)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	tail := list[len(list)-1]
	c.storeOrDropList(key, list[:len(list)-1])
	c.addMod(1)
	return &tail, nil
}

// LLen returns the length of the list at key, 0 if absent.
func (c *Core) LLen(key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listOf(key)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func resolveIndex(i, length int) (int, bool) {
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// LIndex returns the element at index in the list at key, supporting
// negative indices counted from the tail. Returns nil if out of range.
func (c *Core) LIndex(key string, index int) (*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listOf(key)
	if err != nil {
		return nil, err
	}

	i, ok := resolveIndex(index, len(list))
	if !ok {
		return nil, nil
	}
	v := list[i]
	return &v, nil
}

// LSet overwrites the list element at index with value.
func (c *Core) LSet(key string, index int, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listOf(key)
	if err != nil {
		return err
	}

	i, ok := resolveIndex(index, len(list))
	if !ok {
		return ErrIndexOutOfRange
	}

	next := make([]string, len(list))
	copy(next, list)
	next[i] = value

	c.storage.set(key, newListItem(next))
	c.addMod(1)
	return nil
}

// ------------------------------------------------------------------- Set

func (c *Core) setOf(key string) (map[string]struct{}, error) {
	item := c.storage.get(key)
	if item == nil {
		return nil, nil
	}
	if item.Kind() != KindSet {
		return nil, ErrWrongType
	}
	return item.set, nil
}

func (c *Core) storeOrDropSet(key string, set map[string]struct{}) {
	if len(set) == 0 {
		c.storage.delete(key)
		return
	}
	c.storage.set(key, newSetItem(set))
}

// SAdd adds members to the set at key, creating it if absent. Returns the
// count of members that were newly added.
func (c *Core) SAdd(key string, members []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, err := c.setOf(key)
	if err != nil {
		return 0, err
	}

	next := make(map[string]struct{}, len(old)+len(members))
	for m := range old {
		next[m] = struct{}{}
	}

	added := 0
	for _, m := range members {
		if _, ok := next[m]; !ok {
			next[m] = struct{}{}
			added++
		}
	}

	c.storeOrDropSet(key, next)
	c.addMod(added)
	return added, nil
}

// SRem removes members from the set at key. Returns the count actually
// removed.
func (c *Core) SRem(key string, members []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, err := c.setOf(key)
	if err != nil {
		return 0, err
	}

	next := make(map[string]struct{}, len(old))
	for m := range old {
		next[m] = struct{}{}
	}

	removed := 0
	for _, m := range members {
		if _, ok := next[m]; ok {
			delete(next, m)
			removed++
		}
	}

	c.storeOrDropSet(key, next)
	c.addMod(removed)
	return removed, nil
}

// SPop removes and returns one arbitrary member of the set at key, nil if
// empty/absent.
func (c *Core) SPop(key string) (*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, err := c.setOf(key)
	if err != nil {
		return nil, err
	}
	if len(old) == 0 {
		return nil, nil
	}

	var popped string
	for m := range old {
		popped = m
		break
	}

	next := make(map[string]struct{}, len(old)-1)
	for m := range old {
		if m != popped {
			next[m] = struct{}{}
		}
	}

	c.storeOrDropSet(key, next)
	c.addMod(1)
	return &popped, nil
}

// SCard returns the member count of the set at key, 0 if absent.
func (c *Core) SCard(key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.setOf(key)
	if err != nil {
		return 0, err
	}
	return len(set), nil
}

// SMembers returns all members of the set at key, in no particular order.
func (c *Core) SMembers(key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.setOf(key)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(set))
	for m := range set {
		result = append(result, m)
	}
	return result, nil
}

// ----------------------------------------------------------- Persistence

// SnapshotEntry is the exported, gob-friendly mirror of an Item, keyed by
// its original map key.
type SnapshotEntry struct {
	Key      string
	Kind     ItemKind
	Str      string
	Hash     map[string]string
	List     []string
	Set      map[string]struct{}
	ExpireAt int64
}

// Snapshot returns a deterministically ordered, point-in-time copy of the
// keyspace suitable for gob encoding.
func (c *Core) Snapshot() []SnapshotEntry {
	c.mu.Lock()
	items := c.storage.snapshot()
	c.mu.Unlock()

	entries := make([]SnapshotEntry, 0, len(items))
	for k, item := range items {
		entries = append(entries, SnapshotEntry{
			Key:      k,
			Kind:     item.kind,
			Str:      item.str,
			Hash:     item.hash,
			List:     item.list,
			Set:      item.set,
			ExpireAt: item.expireAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Restore replaces the keyspace contents with entries loaded from a
// snapshot and installs expiration timers for any deadline still in the
// future, deleting any entry whose deadline has already elapsed. Callers
// must guarantee no concurrent access is in flight -- this is a startup-only
// operation.
func (c *Core) Restore(entries []SnapshotEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make(map[string]*Item, len(entries))
	for _, e := range entries {
		items[e.Key] = &Item{
			kind:     e.Kind,
			str:      e.Str,
			hash:     e.Hash,
			list:     e.List,
			set:      e.Set,
			expireAt: e.ExpireAt,
		}
	}
	c.storage.restore(items)

	now := c.now().Unix()
	for key, item := range items {
		if item.expireAt == 0 {
			continue
		}
		if item.expireAt <= now {
			c.storage.delete(key)
			continue
		}

		key, deadline := key, item.expireAt
		c.timers.Install(key, time.Duration(deadline-now)*time.Second, func() {
			c.fireExpire(key, deadline)
		})
	}
}
