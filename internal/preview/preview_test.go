package preview

import (
	"sync"
	"testing"
)

func TestLastRequestWins(t *testing.T) {
	tr := NewTracker()
	first := tr.Begin()
	if !tr.Current(first) {
		t.Fatal("fresh token must be current")
	}
	second := tr.Begin()
	if tr.Current(first) {
		t.Fatal("superseded token must be stale")
	}
	if !tr.Current(second) {
		t.Fatal("latest token must be current")
	}
}

func TestTokensMonotonic(t *testing.T) {
	tr := NewTracker()
	prev := tr.Begin()
	for i := 0; i < 100; i++ {
		next := tr.Begin()
		if next <= prev {
			t.Fatalf("token %d not greater than %d", next, prev)
		}
		prev = next
	}
}

func TestConcurrentBegins(t *testing.T) {
	tr := NewTracker()
	const n = 64
	tokens := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens[i] = tr.Begin()
		}()
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	current := 0
	for _, tok := range tokens {
		if seen[tok] {
			t.Fatalf("duplicate token %d", tok)
		}
		seen[tok] = true
		if tr.Current(tok) {
			current++
		}
	}
	if current != 1 {
		t.Fatalf("exactly one token may be current, got %d", current)
	}
}
