package core

import (
	"sort"
	"testing"
	"time"

	"github.com/go-test/deep"
)

func newTestCore(now time.Time) *Core {
	c := New()
	c.now = func() time.Time { return now }
	return c
}

func TestCore_SetGet(t *testing.T) {
	c := New()

	c.Set("a", "b")

	value, ok, err := c.Get("a")
	if err != nil || !ok || value != "b" {
		t.Fatalf("Get(a) = %q, %v, %v; want b, true, nil", value, ok, err)
	}

	_, ok, err = c.Get("missing")
	if err != nil || ok {
		t.Fatalf("Get(missing) = _, %v, %v; want false, nil", ok, err)
	}
}

func TestCore_TypeGate(t *testing.T) {
	c := New()
	c.Set("a", "b")

	if _, _, err := c.HGet("a", "f"); err != ErrWrongType {
		t.Fatalf("HGet on string key: err = %v, want ErrWrongType", err)
	}
}

func TestCore_MSetMGet(t *testing.T) {
	c := New()
	c.MSet([]KV{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}})

	got := c.MGet([]string{"a", "b", "missing"})
	want := []*string{strPtr("1"), strPtr("2"), nil}

	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("MGet: %s", diff)
	}
}

func TestCore_MGet_WrongTypeKeyIsNilNotError(t *testing.T) {
	c := New()
	c.Set("a", "1")
	if _, err := c.HSet("h", "f", "v"); err != nil {
		t.Fatalf("HSet: %s", err)
	}

	got := c.MGet([]string{"a", "h"})
	want := []*string{strPtr("1"), nil}

	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("MGet: %s", diff)
	}
}

func TestCore_ExpireAndTtl(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := newTestCore(now)

	c.Set("a", "b")

	if got := c.Ttl("a"); got != -1 {
		t.Fatalf("Ttl before Expire = %d, want -1", got)
	}
	if got := c.Ttl("missing"); got != -2 {
		t.Fatalf("Ttl(missing) = %d, want -2", got)
	}

	if got := c.Expire("a", 10); got != 1 {
		t.Fatalf("Expire = %d, want 1", got)
	}
	if got := c.Ttl("a"); got != 10 {
		t.Fatalf("Ttl after Expire = %d, want 10", got)
	}

	if got := c.Persist("a"); got != 1 {
		t.Fatalf("Persist = %d, want 1", got)
	}
	if got := c.Ttl("a"); got != -1 {
		t.Fatalf("Ttl after Persist = %d, want -1", got)
	}
}

func TestCore_ExpireFires(t *testing.T) {
	c := New()
	c.SetEx("a", "b", 1)

	if _, ok, _ := c.Get("a"); !ok {
		t.Fatal("key should exist immediately after SetEx")
	}

	time.Sleep(1200 * time.Millisecond)

	if _, ok, _ := c.Get("a"); ok {
		t.Fatal("key should have expired")
	}
	if got := c.Ttl("a"); got != -2 {
		t.Fatalf("Ttl after expiry = %d, want -2", got)
	}
}

func TestCore_PersistCancelsExpiry(t *testing.T) {
	c := New()
	c.Set("a", "b")

	if got := c.Expire("a", 1); got != 1 {
		t.Fatalf("Expire = %d, want 1", got)
	}
	if got := c.Persist("a"); got != 1 {
		t.Fatalf("Persist = %d, want 1", got)
	}

	time.Sleep(1200 * time.Millisecond)

	value, ok, err := c.Get("a")
	if err != nil || !ok || value != "b" {
		t.Fatalf("Get(a) after persist+sleep = %q, %v, %v; want b, true, nil", value, ok, err)
	}
}

func TestCore_Keys(t *testing.T) {
	c := New()
	c.MSet([]KV{{Key: "user:1", Value: "a"}, {Key: "user:2", Value: "b"}, {Key: "admin", Value: "c"}})

	got := c.Keys("user:*")
	sort.Strings(got)
	want := []string{"user:1", "user:2"}

	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("Keys(user:*): %s", diff)
	}
}

func TestCore_Del(t *testing.T) {
	c := New()
	c.MSet([]KV{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}})

	if got := c.Del([]string{"a", "missing"}); got != 1 {
		t.Fatalf("Del = %d, want 1", got)
	}
	if got := c.Type("a"); got != "none" {
		t.Fatalf("Type(a) after Del = %q, want none", got)
	}
}

func TestCore_Type(t *testing.T) {
	c := New()
	c.Set("s", "v")
	c.HSet("h", "f", "v")
	c.RPush("l", []string{"v"})
	c.SAdd("set", []string{"v"})

	tests := []struct {
		key  string
		want string
	}{
		{"s", "string"},
		{"h", "hash"},
		{"l", "list"},
		{"set", "set"},
		{"missing", "none"},
	}

	for _, tc := range tests {
		if got := c.Type(tc.key); got != tc.want {
			t.Errorf("Type(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestCore_Hash(t *testing.T) {
	c := New()

	if count, err := c.HSet("h", "a", "1"); err != nil || count != 1 {
		t.Fatalf("HSet new field: %d, %v; want 1, nil", count, err)
	}
	if count, err := c.HSet("h", "a", "2"); err != nil || count != 0 {
		t.Fatalf("HSet existing field: %d, %v; want 0, nil", count, err)
	}

	c.HMSet("h", []KV{{Key: "b", Value: "3"}, {Key: "c", Value: "4"}})

	if got, ok, err := c.HGet("h", "b"); err != nil || !ok || got != "3" {
		t.Fatalf("HGet(h,b) = %q, %v, %v; want 3, true, nil", got, ok, err)
	}

	got, err := c.HMGet("h", []string{"a", "b", "missing"})
	want := []*string{strPtr("2"), strPtr("3"), nil}
	if err != nil {
		t.Fatalf("HMGet: %s", err)
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("HMGet: %s", diff)
	}

	if n, err := c.HLen("h"); err != nil || n != 3 {
		t.Fatalf("HLen = %d, %v; want 3, nil", n, err)
	}
}

func TestCore_List(t *testing.T) {
	c := New()

	// LPUSH a b c -- each arg prepended in order, so the last ends up at head.
	if n, err := c.LPush("l", []string{"a", "b", "c"}); err != nil || n != 3 {
		t.Fatalf("LPush = %d, %v; want 3, nil", n, err)
	}

	got, err := c.LIndex("l", 0)
	if err != nil || got == nil || *got != "c" {
		t.Fatalf("LIndex(l,0) after LPush a b c = %v, %v; want c", got, err)
	}

	c.RPush("l", []string{"d"})
	tail, err := c.RPop("l")
	if err != nil || tail == nil || *tail != "d" {
		t.Fatalf("RPop after RPush d = %v, %v; want d", tail, err)
	}

	head, err := c.LPop("l")
	if err != nil || head == nil || *head != "c" {
		t.Fatalf("LPop = %v, %v; want c", head, err)
	}

	if n, err := c.LLen("l"); err != nil || n != 2 {
		t.Fatalf("LLen = %d, %v; want 2", n, err)
	}

	if err := c.LSet("l", 0, "z"); err != nil {
		t.Fatalf("LSet: %s", err)
	}
	if err := c.LSet("l", 99, "z"); err != ErrIndexOutOfRange {
		t.Fatalf("LSet out of range: err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestCore_List_EmptyListIsRemoved(t *testing.T) {
	c := New()
	c.RPush("l", []string{"only"})
	c.LPop("l")

	if got := c.Type("l"); got != "none" {
		t.Fatalf("Type(l) after draining = %q, want none", got)
	}
}

func TestCore_Set(t *testing.T) {
	c := New()

	if n, err := c.SAdd("s", []string{"a", "b", "a"}); err != nil || n != 2 {
		t.Fatalf("SAdd = %d, %v; want 2, nil", n, err)
	}
	if n, err := c.SCard("s"); err != nil || n != 2 {
		t.Fatalf("SCard = %d, %v; want 2", n, err)
	}

	members, err := c.SMembers("s")
	sort.Strings(members)
	if err != nil {
		t.Fatalf("SMembers: %s", err)
	}
	if diff := deep.Equal(members, []string{"a", "b"}); diff != nil {
		t.Errorf("SMembers: %s", diff)
	}

	if n, err := c.SRem("s", []string{"a", "missing"}); err != nil || n != 1 {
		t.Fatalf("SRem = %d, %v; want 1, nil", n, err)
	}

	popped, err := c.SPop("s")
	if err != nil || popped == nil || *popped != "b" {
		t.Fatalf("SPop = %v, %v; want b", popped, err)
	}
	if got := c.Type("s"); got != "none" {
		t.Fatalf("Type(s) after draining = %q, want none", got)
	}
}

func TestCore_SnapshotRestore(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := newTestCore(now)

	c.MSet([]KV{{Key: "a", Value: "1"}})
	c.HMSet("h", []KV{{Key: "f", Value: "v"}})
	c.RPush("l", []string{"x", "y"})
	c.SAdd("s", []string{"m"})
	c.Expire("a", 100)

	entries := c.Snapshot()

	restored := newTestCore(now)
	restored.Restore(entries)

	if v, ok, err := restored.Get("a"); err != nil || !ok || v != "1" {
		t.Fatalf("Get(a) after Restore = %q, %v, %v; want 1, true, nil", v, ok, err)
	}
	if got := restored.Ttl("a"); got != 100 {
		t.Fatalf("Ttl(a) after Restore = %d, want 100", got)
	}
	if v, ok, err := restored.HGet("h", "f"); err != nil || !ok || v != "v" {
		t.Fatalf("HGet(h,f) after Restore = %q, %v, %v; want v, true, nil", v, ok, err)
	}
	if n, err := restored.LLen("l"); err != nil || n != 2 {
		t.Fatalf("LLen(l) after Restore = %d, %v; want 2", n, err)
	}
	if n, err := restored.SCard("s"); err != nil || n != 1 {
		t.Fatalf("SCard(s) after Restore = %d, %v; want 1", n, err)
	}
}

func TestCore_Restore_DropsAlreadyExpiredEntries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := newTestCore(now)

	entries := []SnapshotEntry{
		{Key: "stale", Kind: KindString, Str: "v", ExpireAt: now.Unix() - 10},
		{Key: "fresh", Kind: KindString, Str: "v", ExpireAt: now.Unix() + 10},
	}

	c.Restore(entries)

	if got := c.Type("stale"); got != "none" {
		t.Fatalf("Type(stale) after Restore = %q, want none", got)
	}
	if got := c.Type("fresh"); got != "string" {
		t.Fatalf("Type(fresh) after Restore = %q, want string", got)
	}
}

func TestCore_ModCount(t *testing.T) {
	c := New()
	c.Set("a", "b")
	c.Set("c", "d")

	if got := c.ModCount(); got != 2 {
		t.Fatalf("ModCount = %d, want 2", got)
	}

	c.ResetModCount()
	if got := c.ModCount(); got != 0 {
		t.Fatalf("ModCount after reset = %d, want 0", got)
	}
}

func strPtr(s string) *string { return &s }
