package admission

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the per-tenant token budget per replenishment window
// when none is configured.
const DefaultCapacity = 60

// tenantBucket holds one tenant's remaining tokens.
type tenantBucket struct {
	tokens atomic.Int64
}

// take performs the atomic decrement-if-positive. It never drives the count
// negative, so N tokens admit exactly N concurrent requests.
func (b *tenantBucket) take() bool {
	for {
		cur := b.tokens.Load()
		if cur <= 0 {
			return false
		}
		if b.tokens.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Controller is the per-tenant admission controller.
type Controller struct {
	capacity int64

	mu      sync.RWMutex
	tenants map[string]*tenantBucket
}

// NewController creates a controller with the given per-tenant capacity.
// A non-positive capacity selects DefaultCapacity.
func NewController(capacity int64) *Controller {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Controller{
		capacity: capacity,
		tenants:  make(map[string]*tenantBucket),
	}
}

// Allow consumes one token for the tenant if any remain. A tenant seen for
// the first time starts with a full budget.
func (c *Controller) Allow(tenantID string) bool {
	return c.bucket(tenantID).take()
}

// Remaining returns the tenant's remaining tokens in the current window.
func (c *Controller) Remaining(tenantID string) int64 {
	return c.bucket(tenantID).tokens.Load()
}

// Replenish resets every known tenant to full capacity. The Replenisher
// calls this on its schedule.
func (c *Controller) Replenish() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.tenants {
		b.tokens.Store(c.capacity)
	}
}

func (c *Controller) bucket(tenantID string) *tenantBucket {
	c.mu.RLock()
	b, ok := c.tenants[tenantID]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok = c.tenants[tenantID]; ok {
		return b
	}
	b = &tenantBucket{}
	b.tokens.Store(c.capacity)
	c.tenants[tenantID] = b
	return b
}
