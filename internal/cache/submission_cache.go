package cache

import (
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
)

// SubmissionStatus is the result of a bloom lookup.
type SubmissionStatus int

const (
	// StatusNew means the submission id was definitely never recorded by this process.
	StatusNew SubmissionStatus = iota
	// StatusMaybeSeen means the id was probably recorded; a false positive is possible.
	StatusMaybeSeen
)

// SubmissionCache remembers onboarding submission ids already written, so a
// retried submission can be resolved with a read instead of an insert attempt.
// It is an in-process hint only; the unique index on submission_id is authoritative.
type SubmissionCache struct {
	filter         *bloom.BloomFilter
	mu             sync.RWMutex
	hits           atomic.Int64
	misses         atomic.Int64
	falsePositives atomic.Int64
}

// SubmissionCacheStats holds cache counters.
type SubmissionCacheStats struct {
	Hits              int64   `json:"hits"`
	Misses            int64   `json:"misses"`
	FalsePositives    int64   `json:"false_positives"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	ApproximateSize   uint32  `json:"approximate_size"`
}

// NewSubmissionCache creates a bloom filter sized for expected ids at the given false positive rate.
func NewSubmissionCache(expected uint, fpRate float64) *SubmissionCache {
	if expected == 0 {
		expected = 1000
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	return &SubmissionCache{filter: bloom.NewWithEstimates(expected, fpRate)}
}

// Check reports whether submissionID may have been recorded.
func (c *SubmissionCache) Check(submissionID string) SubmissionStatus {
	if submissionID == "" {
		return StatusNew
	}

	c.mu.RLock()
	seen := c.filter.TestString(submissionID)
	c.mu.RUnlock()

	if seen {
		c.hits.Add(1)
		observer.IncCacheCheck("submission", "possible_hit")
		return StatusMaybeSeen
	}
	c.misses.Add(1)
	observer.IncCacheCheck("submission", "miss")
	return StatusNew
}

// MarkSeen records submissionID.
func (c *SubmissionCache) MarkSeen(submissionID string) {
	if submissionID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.AddString(submissionID)
}

// RecordFalsePositive tracks a StatusMaybeSeen answer that the database contradicted.
func (c *SubmissionCache) RecordFalsePositive() {
	c.falsePositives.Add(1)
	observer.IncCacheCheck("submission", "false_positive")
}

// GetStats returns cache statistics
func (c *SubmissionCache) GetStats() SubmissionCacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	fps := c.falsePositives.Load()

	fpRate := float64(0)
	if hits > 0 {
		fpRate = float64(fps) / float64(hits)
	}

	c.mu.RLock()
	size := c.filter.ApproximatedSize()
	c.mu.RUnlock()

	return SubmissionCacheStats{
		Hits:              hits,
		Misses:            misses,
		FalsePositives:    fps,
		FalsePositiveRate: fpRate,
		ApproximateSize:   size,
	}
}

// Reset clears the filter and counters.
func (c *SubmissionCache) Reset() {
	c.mu.Lock()
	c.filter.ClearAll()
	c.mu.Unlock()

	c.hits.Store(0)
	c.misses.Store(0)
	c.falsePositives.Store(0)
}
