package sequence

import (
	"sync"
	"testing"
)

func TestSequencerConcurrentNext(t *testing.T) {
	s := New(10)

	const workers, each = 8, 500
	var (
		mu   sync.Mutex
		seen = make(map[uint64]bool)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				v := s.Next()
				mu.Lock()
				if seen[v] {
					t.Errorf("duplicate sequence %d", v)
				}
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if got := s.Current(); got != 10+workers*each {
		t.Fatalf("expected current %d, got %d", 10+workers*each, got)
	}
}

func TestSequencerObserve(t *testing.T) {
	s := New(5)
	s.Observe(3)
	if s.Current() != 5 {
		t.Fatalf("observe moved sequencer backwards to %d", s.Current())
	}
	s.Observe(42)
	if s.Next() != 43 {
		t.Fatal("expected next to follow observed value")
	}
}
