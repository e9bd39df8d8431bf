package lawsuit

import (
	"fmt"
	"time"
)

// CacheGate decides whether stored records are still fresh enough to serve
// without re-fetching. It is a single freshness check per company, not an
// eviction policy: no LRU, no size bound.
type CacheGate struct {
	TTL time.Duration
}

// Freshness is the gate's verdict for one company.
type Freshness struct {
	Fresh bool
	Age   time.Duration
	// Note is a human-readable age annotation, populated only when fresh.
	Note string
}

// Evaluate compares the newest stored record's timestamp against the TTL. A
// record aged exactly at the threshold is stale: age < TTL is the only fresh
// condition.
func (g CacheGate) Evaluate(newest, now time.Time) Freshness {
	age := now.Sub(newest)
	if age < 0 {
		age = 0
	}
	if age >= g.TTL {
		return Freshness{Fresh: false, Age: age}
	}
	return Freshness{Fresh: true, Age: age, Note: g.ageNote(age)}
}

// ageNote rounds to minutes on short TTLs and to hours on day-scale ones.
func (g CacheGate) ageNote(age time.Duration) string {
	if g.TTL <= 6*time.Hour {
		return fmt.Sprintf("updated %d minutes ago", int(age.Round(time.Minute).Minutes()))
	}
	return fmt.Sprintf("updated %d hours ago", int(age.Round(time.Hour).Hours()))
}
