package game

import "time"

// GenerationLease marks the game as waiting on the image generator.
// It is advisory (clients block their UI on it), not a mutex: a second
// client could still race the flag. The expiry means a crashed client
// cannot leave the game stuck in "generating" forever.
type GenerationLease struct {
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BeginGeneration takes the lease. Taking it while an unexpired lease
// is held is allowed; the newer lease wins (last write wins, matching
// the store's semantics).
func (g *Game) BeginGeneration(ttl time.Duration, now time.Time) {
	g.Generation = &GenerationLease{
		StartedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// EndGeneration releases the lease. Every caller that begins a
// generation must end it on both the success and failure paths.
func (g *Game) EndGeneration() {
	g.Generation = nil
}

func (g *Game) IsGenerating(now time.Time) bool {
	return g.Generation != nil && now.Before(g.Generation.ExpiresAt)
}
