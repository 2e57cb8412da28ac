package mcp

import (
	"sync"
)

// DefaultCacheSize bounds the number of builds kept for get_job_log.
const DefaultCacheSize = 16

// cachedBuild is a fetched build with its compacted job logs, keyed by job
// number.
type cachedBuild struct {
	response BuildResponse
	logs     map[string][]string
}

// BuildCache keeps recently fetched builds so a client can page through a
// job log without fetching it again. The oldest build is evicted first.
type BuildCache struct {
	mu     sync.RWMutex
	size   int
	order  []string
	builds map[string]cachedBuild
}

// NewBuildCache creates a cache holding at most size builds.
func NewBuildCache(size int) *BuildCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &BuildCache{
		size:   size,
		builds: make(map[string]cachedBuild),
	}
}

// Store saves a build response and its full compacted logs.
func (c *BuildCache) Store(response BuildResponse, logs map[string][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := response.Key
	if _, ok := c.builds[key]; !ok {
		c.order = append(c.order, key)
	}
	c.builds[key] = cachedBuild{response: response, logs: logs}

	for len(c.order) > c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.builds, oldest)
	}
}

// Get returns the compacted log of one job of a cached build.
func (c *BuildCache) Get(key, job string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.builds[key]
	if !ok {
		return nil, false
	}
	lines, ok := b.logs[job]
	return lines, ok
}

// GetBuild returns the cached response for key.
func (c *BuildCache) GetBuild(key string) (BuildResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.builds[key]
	return b.response, ok
}

// Len reports how many builds are cached.
func (c *BuildCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.builds)
}
