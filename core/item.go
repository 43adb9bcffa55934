package core

// ItemKind is the value-kind tag, stable and persisted: its ordinal is part
// of the snapshot format, so existing constants must never be renumbered.
type ItemKind int

const (
	KindString ItemKind = iota
	KindHash
	KindList
	KindSet
	KindZSet
)

// String returns the externally visible type name, as reported by TYPE.
func (k ItemKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindZSet:
		return "zset"
	default:
		return "none"
	}
}

// Item is the tagged-variant representation of one key's value: exactly one
// of str/hash/list/set is meaningful, selected by kind. Items are never
// mutated after construction -- every write installs a fresh *Item under the
// keyspace's lock, so a Snapshot() taken between commands never observes a
// half-written value and never needs to deep-copy a container it holds on
// to past the lock.
type Item struct {
	kind ItemKind

	str  string
	hash map[string]string
	list []string
	set  map[string]struct{}

	// expireAt is a unix-seconds deadline, or 0 when the key has none.
	expireAt int64
}

func newStringItem(s string) *Item {
	return &Item{kind: KindString, str: s}
}

func newHashItem(m map[string]string) *Item {
	return &Item{kind: KindHash, hash: m}
}

func newListItem(l []string) *Item {
	return &Item{kind: KindList, list: l}
}

func newSetItem(m map[string]struct{}) *Item {
	return &Item{kind: KindSet, set: m}
}

// withExpireAt returns a shallow copy of the item carrying a new deadline.
// Payload slices/maps are shared with the original -- safe only because
// those payloads are themselves never mutated in place.
func (i *Item) withExpireAt(deadline int64) *Item {
	cp := *i
	cp.expireAt = deadline
	return &cp
}

func (i *Item) Kind() ItemKind { return i.kind }
