package subscription

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
)

// PlanCache provides in-memory caching for plan lookups.
// Every plan write invalidates the entry so price and quota changes are seen immediately.
type PlanCache struct {
	lru *expirable.LRU[string, domain.Plan]
}

// NewPlanCache creates a new cache with the specified size and TTL
func NewPlanCache(size int, ttl time.Duration) *PlanCache {
	return &PlanCache{
		lru: expirable.NewLRU[string, domain.Plan](size, nil, ttl),
	}
}

// Get retrieves a cached plan if it exists and hasn't expired
func (c *PlanCache) Get(planID string) (*domain.Plan, bool) {
	plan, ok := c.lru.Get(planID)
	if !ok {
		return nil, false
	}
	return &plan, true
}

// Set stores a plan in the cache
func (c *PlanCache) Set(plan domain.Plan) {
	c.lru.Add(plan.ID, plan)
}

// Invalidate removes a specific plan from cache
func (c *PlanCache) Invalidate(planID string) {
	c.lru.Remove(planID)
}

// InvalidateAll clears the entire cache
func (c *PlanCache) InvalidateAll() {
	c.lru.Purge()
}

// Size returns the current number of cached entries
func (c *PlanCache) Size() int {
	return c.lru.Len()
}
