package visited

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// Bloom filter defaults for ~1M URLs with 0.1% false positive rate
	defaultBloomCapacity      = 1_000_000
	defaultBloomFalsePositive = 0.001
)

// Set records internal URLs already claimed for fetching.
// Claim is a single check-and-set: for a given key it returns true at most once.
type Set interface {
	Claim(key string) bool
	Len() int
}

// ExactSet is a map-backed Set with no false positives
type ExactSet struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// New creates an exact visited set
func New() *ExactSet {
	return &ExactSet{claimed: make(map[string]struct{})}
}

// Claim marks key as claimed and reports whether this call claimed it
func (s *ExactSet) Claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claimed[key]; ok {
		return false
	}
	s.claimed[key] = struct{}{}
	return true
}

// Len returns the number of claimed keys
func (s *ExactSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claimed)
}

// BloomSet is a fixed-memory Set for very large crawls. A false positive
// makes a never-seen URL look claimed, so some pages may be skipped.
type BloomSet struct {
	mu    sync.Mutex
	seen  *bloom.BloomFilter
	count int
}

// NewBloom creates a bloom-filter visited set sized for capacity entries at
// the given false positive rate. Zero values select the defaults.
func NewBloom(capacity uint, falsePositive float64) *BloomSet {
	if capacity == 0 {
		capacity = defaultBloomCapacity
	}
	if falsePositive <= 0 || falsePositive >= 1 {
		falsePositive = defaultBloomFalsePositive
	}
	return &BloomSet{seen: bloom.NewWithEstimates(capacity, falsePositive)}
}

// Claim marks key as claimed and reports whether this call claimed it
func (s *BloomSet) Claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen.TestAndAddString(key) {
		return false
	}
	s.count++
	return true
}

// Len returns the number of successful claims
func (s *BloomSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
