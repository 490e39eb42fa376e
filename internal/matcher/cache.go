// Package matcher holds the in-memory embedding cache used to match a
// detected face against known profiles without a database round trip per
// frame.
package matcher

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// Match is the outcome of matching a query embedding against the cache.
type Match struct {
	ProfileID  uuid.UUID
	Distance   float32
	Confidence float32
}

type cacheEntry struct {
	profileID uuid.UUID
	embedding valueobject.FaceEmbedding
}

// Cache holds active profile embeddings for fast nearest-neighbor
// matching. Reads (Find/FindAll) vastly outnumber writes (Add/Remove),
// so it is guarded by a RWMutex rather than serialized through a channel.
type Cache struct {
	mu        sync.RWMutex
	entries   []cacheEntry
	threshold float32

	profiles repository.ProfileRepository
}

// New creates an empty cache backed by profiles, matching within
// threshold (lower distance required to count as a match).
func New(profiles repository.ProfileRepository, threshold float32) *Cache {
	return &Cache{profiles: profiles, threshold: threshold}
}

// Load replaces the cache with every active profile's embedding.
func (c *Cache) Load(ctx context.Context) error {
	profiles, err := c.profiles.FindAllActive(ctx)
	if err != nil {
		return err
	}

	entries := make([]cacheEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, cacheEntry{profileID: p.ID, embedding: p.Embedding})
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	slog.Info("loaded profile embeddings into cache", "count", len(entries))
	return nil
}

// Add appends a profile embedding; an existing entry for the same
// profile is neither replaced nor deduplicated.
func (c *Cache) Add(profileID uuid.UUID, embedding valueobject.FaceEmbedding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, cacheEntry{profileID: profileID, embedding: embedding})
}

// Remove drops a profile's embedding from the cache.
func (c *Cache) Remove(profileID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	filtered := c.entries[:0]
	for _, e := range c.entries {
		if e.profileID != profileID {
			filtered = append(filtered, e)
		}
	}
	c.entries = filtered
}

// SetThreshold updates the match distance threshold.
func (c *Cache) SetThreshold(threshold float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = threshold
}

// Threshold returns the current match distance threshold.
func (c *Cache) Threshold() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threshold
}

// CacheSize returns the number of cached profile embeddings.
func (c *Cache) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Find returns the closest profile within the threshold, or false if no
// cached embedding qualifies. Among ties, the first-loaded profile wins.
func (c *Cache) Find(embedding valueobject.FaceEmbedding) (Match, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best Match
	found := false

	for _, e := range c.entries {
		distance := embedding.Distance(e.embedding)
		if distance < c.threshold && (!found || distance < best.Distance) {
			best = Match{ProfileID: e.profileID, Distance: distance}
			found = true
		}
	}

	if !found {
		return Match{}, false
	}
	best.Confidence = distanceToConfidence(best.Distance, c.threshold)
	return best, true
}

// FindAll returns every profile within the threshold, sorted by ascending
// distance (closest match first).
func (c *Cache) FindAll(embedding valueobject.FaceEmbedding) []Match {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := make([]Match, 0, len(c.entries))
	for _, e := range c.entries {
		distance := embedding.Distance(e.embedding)
		if distance < c.threshold {
			matches = append(matches, Match{
				ProfileID:  e.profileID,
				Distance:   distance,
				Confidence: distanceToConfidence(distance, c.threshold),
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches
}

func distanceToConfidence(distance, threshold float32) float32 {
	confidence := 1.0 - distance/threshold
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
