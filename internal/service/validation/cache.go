package validation

import (
	"sync"

	"github.com/locapass/docverify/internal/models"
)

// ResultCache 进程内校验结果缓存
//
// Entries live for the process lifetime: no eviction, no TTL. Clear is
// the only way to force a re-validation of a seen locator. The
// interface exists so a bounded or TTL cache can be substituted
// without touching the orchestrator.
type ResultCache interface {
	Get(key string) (*models.DocumentValidationResult, bool)
	Put(key string, result *models.DocumentValidationResult)
	Clear()
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*models.DocumentValidationResult
}

// NewMemoryCache 创建无界进程内缓存
func NewMemoryCache() ResultCache {
	return &memoryCache{
		entries: make(map[string]*models.DocumentValidationResult),
	}
}

func (c *memoryCache) Get(key string) (*models.DocumentValidationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result, ok := c.entries[key]
	return result, ok
}

func (c *memoryCache) Put(key string, result *models.DocumentValidationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = result
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*models.DocumentValidationResult)
}
