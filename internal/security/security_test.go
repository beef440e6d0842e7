package security

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiter_Allow_NormalLoad(t *testing.T) {
	rl := NewRateLimiter(100, 60*time.Second, 10000)
	sourceIP := "192.168.1.50"

	for i := 0; i < 50; i++ {
		if !rl.Allow(sourceIP) {
			t.Errorf("datagram %d was blocked but should be allowed (under threshold)", i+1)
		}
	}

	rl.mu.RLock()
	entry, exists := rl.sources[sourceIP]
	rl.mu.RUnlock()

	if !exists {
		t.Fatal("expected entry to exist for source IP")
	}
	if !entry.cooldownExpiry.IsZero() {
		t.Errorf("expected no cooldown, but cooldownExpiry is set to %v", entry.cooldownExpiry)
	}
}

func TestRateLimiter_Allow_ExceedsThreshold(t *testing.T) {
	rl := NewRateLimiter(100, 60*time.Second, 10000)
	sourceIP := "192.168.1.100"

	allowedCount, blockedCount := 0, 0
	for i := 0; i < 150; i++ {
		if rl.Allow(sourceIP) {
			allowedCount++
		} else {
			blockedCount++
		}
	}

	if allowedCount > 100 {
		t.Errorf("expected at most 100 datagrams allowed, got %d", allowedCount)
	}
	if blockedCount == 0 {
		t.Error("expected some datagrams to be blocked, but all were allowed")
	}

	rl.mu.RLock()
	entry := rl.sources[sourceIP]
	rl.mu.RUnlock()

	if entry.cooldownExpiry.IsZero() {
		t.Error("expected cooldown to be triggered, but cooldownExpiry is zero")
	}
	if entry.cooldownExpiry.Before(time.Now()) {
		t.Error("expected cooldown to be in the future")
	}
}

func TestRateLimiter_Cooldown(t *testing.T) {
	rl := NewRateLimiter(10, 500*time.Millisecond, 10000)
	sourceIP := "192.168.1.150"

	for i := 0; i < 20; i++ {
		rl.Allow(sourceIP)
	}

	for i := 0; i < 5; i++ {
		if rl.Allow(sourceIP) {
			t.Errorf("datagram %d was allowed but should be blocked during cooldown", i+1)
		}
	}

	time.Sleep(600 * time.Millisecond)

	if !rl.Allow(sourceIP) {
		t.Error("datagram was blocked after cooldown expired, but should be allowed")
	}
}

func TestRateLimiter_BoundedMap(t *testing.T) {
	rl := NewRateLimiter(100, 60*time.Second, 100)

	for i := 0; i < 150; i++ {
		rl.Allow(fmt.Sprintf("192.168.1.%d", i))
	}

	rl.mu.RLock()
	mapSize := len(rl.sources)
	evictionCount := rl.evictionCount
	rl.mu.RUnlock()

	if mapSize > 100 {
		t.Errorf("expected map size <= 100, got %d", mapSize)
	}
	if evictionCount == 0 {
		t.Error("expected evictionCount > 0 after exceeding maxEntries, but got 0")
	}

	newestIP := "10.0.0.1"
	rl.Allow(newestIP)

	rl.mu.RLock()
	_, exists := rl.sources[newestIP]
	rl.mu.RUnlock()

	if !exists {
		t.Error("expected newest entry to exist after eviction")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(100, 60*time.Second, 10000)

	staleIP1, staleIP2, activeIP := "192.168.1.1", "192.168.1.2", "192.168.1.3"

	rl.Allow(staleIP1)
	rl.Allow(staleIP2)

	rl.mu.Lock()
	rl.sources[staleIP1].lastSeen = time.Now().Add(-2 * time.Minute)
	rl.sources[staleIP2].lastSeen = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	rl.Allow(activeIP)

	rl.Cleanup()

	rl.mu.RLock()
	afterSize := len(rl.sources)
	_, staleExists1 := rl.sources[staleIP1]
	_, staleExists2 := rl.sources[staleIP2]
	_, activeExists := rl.sources[activeIP]
	rl.mu.RUnlock()

	if staleExists1 || staleExists2 {
		t.Error("expected stale entries to be removed")
	}
	if !activeExists {
		t.Error("expected active entry to be retained")
	}
	if afterSize != 1 {
		t.Errorf("expected map size=1 after cleanup, got %d", afterSize)
	}
}
