package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
)

// MemoryPlanCache keeps the plans of the most recently planned groups in
// process memory. Once it holds maxGroups plans, the group planned least
// recently is dropped.
type MemoryPlanCache struct {
	mu        sync.Mutex
	maxGroups int
	ttl       time.Duration
	byGroup   map[string]*list.Element
	recency   *list.List // front is the most recently used group
	now       func() time.Time
}

type memoryPlan struct {
	groupID  string
	entry    planEntry
	storedAt time.Time
}

// NewMemoryPlanCache creates a plan cache holding at most maxGroups plans.
// A ttl of zero keeps plans until they are evicted or invalidated.
func NewMemoryPlanCache(maxGroups int, ttl time.Duration) *MemoryPlanCache {
	if maxGroups < 1 {
		maxGroups = 1
	}
	return &MemoryPlanCache{
		maxGroups: maxGroups,
		ttl:       ttl,
		byGroup:   make(map[string]*list.Element),
		recency:   list.New(),
		now:       time.Now,
	}
}

func (c *MemoryPlanCache) Get(_ context.Context, groupID string, version int64) ([]calculator.Transfer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.byGroup[groupID]
	if !ok {
		return nil, false
	}
	p := elem.Value.(*memoryPlan)
	// Versions only grow, so a plan for any other version is never useful again.
	if p.entry.Version != version || c.expired(p) {
		c.drop(elem)
		return nil, false
	}
	c.recency.MoveToFront(elem)
	return append([]calculator.Transfer(nil), p.entry.Plan...), true
}

func (c *MemoryPlanCache) Set(_ context.Context, groupID string, version int64, plan []calculator.Transfer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &memoryPlan{
		groupID:  groupID,
		entry:    planEntry{Version: version, Plan: append([]calculator.Transfer(nil), plan...)},
		storedAt: c.now(),
	}
	if elem, ok := c.byGroup[groupID]; ok {
		elem.Value = p
		c.recency.MoveToFront(elem)
		return
	}
	c.byGroup[groupID] = c.recency.PushFront(p)
	for c.recency.Len() > c.maxGroups {
		c.drop(c.recency.Back())
	}
}

func (c *MemoryPlanCache) Invalidate(_ context.Context, groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.byGroup[groupID]; ok {
		c.drop(elem)
	}
}

func (c *MemoryPlanCache) expired(p *memoryPlan) bool {
	return c.ttl > 0 && c.now().Sub(p.storedAt) > c.ttl
}

func (c *MemoryPlanCache) drop(elem *list.Element) {
	delete(c.byGroup, elem.Value.(*memoryPlan).groupID)
	c.recency.Remove(elem)
}

func (c *MemoryPlanCache) groups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byGroup)
}
