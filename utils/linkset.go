package utils

import (
	"strings"
	"sync"
)

// LinkSet tracks listing URLs that were already processed, either in an
// earlier run or earlier in this one. It only ever grows.
type LinkSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewLinkSet creates a LinkSet seeded with links. Blank seeds are ignored.
func NewLinkSet(links ...string) *LinkSet {
	s := &LinkSet{seen: make(map[string]struct{}, len(links))}
	for _, link := range links {
		s.Add(link)
	}
	return s
}

// Add returns true if the link was newly added, false if already present.
func (s *LinkSet) Add(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[link]; exists {
		return false
	}
	s.seen[link] = struct{}{}
	return true
}

// Size returns the number of unique links tracked.
func (s *LinkSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
