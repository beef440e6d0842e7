// Package security provides per-source-IP rate limiting for the
// dnscamo server, protecting it against datagram floods from a single
// sender.
package security

import (
	"sync"
	"time"
)

// RateLimitEntry tracks datagram rate for a single source IP.
type RateLimitEntry struct {
	windowStart    time.Time // Start of current fixed 1-second window
	cooldownExpiry time.Time // When cooldown period ends (zero if not in cooldown)
	lastSeen       time.Time // Last datagram received (for LRU eviction)
	sourceIP       string    // Source IP address (key in RateLimiter map)
	queryCount     int       // Number of datagrams in current sliding window
}

// RateLimiter enforces a per-source-IP datagram rate with a bounded
// map of tracked sources.
type RateLimiter struct {
	threshold     int                        // Max datagrams/second per source IP
	cooldown      time.Duration              // Duration to drop packets after threshold exceeded
	maxEntries    int                        // Max number of source IPs tracked
	sources       map[string]*RateLimitEntry // Source IP → RateLimitEntry
	mu            sync.RWMutex               // Protects sources map
	evictionCount uint64                     // Number of LRU evictions (for metrics)
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(threshold int, cooldown time.Duration, maxEntries int) *RateLimiter {
	return &RateLimiter{
		threshold:  threshold,
		cooldown:   cooldown,
		maxEntries: maxEntries,
		sources:    make(map[string]*RateLimitEntry),
	}
}

// Allow reports whether a datagram from sourceIP should be processed.
// It returns false while the source is in cooldown or once it has
// exceeded the threshold within the current one-second window.
func (rl *RateLimiter) Allow(sourceIP string) bool {
	rl.mu.RLock()
	entry, exists := rl.sources[sourceIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// re-check after acquiring the write lock
		entry, exists = rl.sources[sourceIP]
		if !exists {
			rl.sources[sourceIP] = &RateLimitEntry{
				sourceIP:    sourceIP,
				queryCount:  1,
				windowStart: time.Now(),
				lastSeen:    time.Now(),
			}
			if len(rl.sources) > rl.maxEntries {
				rl.evict()
			}
			rl.mu.Unlock()
			return true
		}
		rl.mu.Unlock()
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if !entry.cooldownExpiry.IsZero() && now.Before(entry.cooldownExpiry) {
		return false
	}

	if !entry.cooldownExpiry.IsZero() && now.After(entry.cooldownExpiry) {
		entry.queryCount = 1
		entry.windowStart = now
		entry.cooldownExpiry = time.Time{}
		entry.lastSeen = now
		return true
	}

	if now.Sub(entry.windowStart) > 1*time.Second {
		entry.queryCount = 1
		entry.windowStart = now
		entry.cooldownExpiry = time.Time{}
	} else {
		entry.queryCount++
	}

	entry.lastSeen = now

	if entry.queryCount > rl.threshold {
		entry.cooldownExpiry = now.Add(rl.cooldown)
		return false
	}

	return true
}

// evict removes the oldest tenth of entries by lastSeen. Must be
// called while holding rl.mu for writing.
func (rl *RateLimiter) evict() {
	evictCount := rl.maxEntries / 10
	if evictCount == 0 {
		evictCount = 1
	}

	type entryWithTime struct {
		ip       string
		lastSeen time.Time
	}

	entries := make([]entryWithTime, 0, len(rl.sources))
	for ip, entry := range rl.sources {
		entries = append(entries, entryWithTime{ip: ip, lastSeen: entry.lastSeen})
	}

	for i := 0; i < evictCount && i < len(entries); i++ {
		oldestIdx := i
		for j := i + 1; j < len(entries); j++ {
			if entries[j].lastSeen.Before(entries[oldestIdx].lastSeen) {
				oldestIdx = j
			}
		}
		entries[i], entries[oldestIdx] = entries[oldestIdx], entries[i]
	}

	evicted := 0
	for i := 0; i < evictCount && i < len(entries); i++ {
		delete(rl.sources, entries[i].ip)
		evicted++
	}

	rl.evictionCount += uint64(evicted)
}

// Cleanup removes entries not seen in the last minute. Callers
// typically invoke this periodically to bound memory growth in a
// long-lived server process.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	toDelete := make([]string, 0)

	for ip, entry := range rl.sources {
		if now.Sub(entry.lastSeen) > 1*time.Minute {
			toDelete = append(toDelete, ip)
		}
	}

	for _, ip := range toDelete {
		delete(rl.sources, ip)
	}
}
