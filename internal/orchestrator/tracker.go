package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sightingTracker enforces at-most-one sighting per profile per cooldown
// window, independent of how many frames match that profile in between.
type sightingTracker struct {
	mu           sync.Mutex
	recent       map[uuid.UUID]time.Time
	cooldownSecs int64
}

func newSightingTracker(cooldownSecs int64) *sightingTracker {
	return &sightingTracker{
		recent:       make(map[uuid.UUID]time.Time),
		cooldownSecs: cooldownSecs,
	}
}

// shouldRecord reports whether a sighting should be written for
// profileID now, and if so marks it as just-seen.
func (t *sightingTracker) shouldRecord(profileID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	if lastSeen, ok := t.recent[profileID]; ok {
		if now.Sub(lastSeen) < time.Duration(t.cooldownSecs)*time.Second {
			return false
		}
	}
	t.recent[profileID] = now
	return true
}

// cleanup drops entries older than twice the cooldown window, so
// profiles that stop appearing eventually fall out of memory.
func (t *sightingTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	cutoff := time.Duration(t.cooldownSecs*2) * time.Second
	for id, lastSeen := range t.recent {
		if now.Sub(lastSeen) >= cutoff {
			delete(t.recent, id)
		}
	}
}

func (t *sightingTracker) setCooldown(cooldownSecs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cooldownSecs = cooldownSecs
}
