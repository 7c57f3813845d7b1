package ttlmap

import (
	"testing"
	"time"
)

// fakeClock returns a Now func and an advance func for driving entry ages
// without sleeping.
func fakeClock() (now func() time.Time, advance func(time.Duration)) {
	t := time.Unix(1000, 0)
	return func() time.Time { return t }, func(d time.Duration) { t = t.Add(d) }
}

func TestGetExpiresEntries(t *testing.T) {
	m := New[string, int](time.Second, 0)
	now, advance := fakeClock()
	m.Now = now

	m.Set("a", 1)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("expected fresh entry present, got %v %v", v, ok)
	}

	advance(time.Second + time.Millisecond)
	if _, ok := m.Get("a"); ok {
		t.Fatal("expected entry expired after TTL")
	}
	// Expired entries are purged on access, not just hidden.
	if m.Len() != 0 {
		t.Fatalf("expected lazy purge on Get, len=%d", m.Len())
	}
}

func TestSetRefreshesAge(t *testing.T) {
	m := New[string, int](time.Second, 0)
	now, advance := fakeClock()
	m.Now = now

	m.Set("a", 1)
	advance(900 * time.Millisecond)
	m.Set("a", 2)
	advance(900 * time.Millisecond)

	if v, ok := m.Get("a"); !ok || v != 2 {
		t.Fatalf("expected refreshed entry to survive, got %v %v", v, ok)
	}
}

func TestSetRespectsMaxSize(t *testing.T) {
	m := New[int, int](time.Minute, 2)
	if !m.Set(1, 1) || !m.Set(2, 2) {
		t.Fatal("expected inserts below capacity to succeed")
	}
	if m.Set(3, 3) {
		t.Fatal("expected insert at capacity to be refused")
	}
	// Existing keys can still be refreshed at capacity.
	if !m.Set(1, 10) {
		t.Fatal("expected refresh of existing key at capacity")
	}
	m.Delete(2)
	if !m.Set(3, 3) {
		t.Fatal("expected insert to succeed after Delete freed a slot")
	}
}

func TestForeachSkipsExpired(t *testing.T) {
	m := New[string, int](time.Second, 0)
	now, advance := fakeClock()
	m.Now = now

	m.Set("old", 1)
	advance(2 * time.Second)
	m.Set("new", 2)

	var seen []string
	m.Foreach(func(k string, v int, age time.Duration) {
		seen = append(seen, k)
		if age != 0 {
			t.Fatalf("expected zero age for fresh entry, got %v", age)
		}
	})
	if len(seen) != 1 || seen[0] != "new" {
		t.Fatalf("expected only live entries visited, got %v", seen)
	}
	if m.Len() != 1 {
		t.Fatalf("expected expired entry purged during Foreach, len=%d", m.Len())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	m := New[string, int](0, 0)
	now, advance := fakeClock()
	m.Now = now

	m.Set("a", 1)
	advance(24 * time.Hour)
	if _, ok := m.Get("a"); !ok {
		t.Fatal("expected zero TTL to mean no expiry")
	}
}
