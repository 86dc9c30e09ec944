package reflection

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/jvm"
)

// DefaultConfiguredSize bounds descriptors resolved under non-default
// configurations.
const DefaultConfiguredSize = 128

// Cache holds class descriptors for the process lifetime. Descriptors for
// the default configuration are kept until Clear; the others live in a
// bounded LRU. Concurrent misses for one key resolve once.
type Cache struct {
	classes    map[string]*ClassDescriptor
	configured *lru.Cache
	group      singleflight.Group
	mu         sync.Mutex
}

// NewCache creates a cache keeping at most size descriptors resolved under
// non-default configurations. size <= 0 selects DefaultConfiguredSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultConfiguredSize
	}
	configured, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &Cache{
		classes:    make(map[string]*ClassDescriptor),
		configured: configured,
	}
}

func cacheKey(name string, cfg config.Class) string {
	if cfg.IsDefault() {
		return name
	}
	return name + "\x00" + cfg.Key()
}

func (c *Cache) lookup(key string, def bool) *ClassDescriptor {
	if !def {
		if v, ok := c.configured.Get(key); ok {
			return v.(*ClassDescriptor)
		}
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classes[key]
}

// Get returns the descriptor of name under cfg, resolving it on env when it
// is not cached.
func (c *Cache) Get(env *jvm.Env, name string, cfg config.Class) (*ClassDescriptor, error) {
	key := cacheKey(name, cfg)
	def := cfg.IsDefault()
	if d := c.lookup(key, def); d != nil {
		return d, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if d := c.lookup(key, def); d != nil {
			return d, nil
		}
		Logger().Debug("descriptor cache miss", zap.String("class", name), zap.Bool("default_config", def))
		d, err := Describe(env, name, cfg)
		if err != nil {
			return nil, err
		}
		if def {
			c.mu.Lock()
			c.classes[key] = d
			c.mu.Unlock()
		} else {
			c.configured.Add(key, d)
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		Logger().Debug("descriptor resolution shared", zap.String("class", name))
	}
	return v.(*ClassDescriptor), nil
}

// Len returns the number of cached descriptors.
func (c *Cache) Len() int {
	c.mu.Lock()
	n := len(c.classes)
	c.mu.Unlock()
	return n + c.configured.Len()
}

// Clear forgets every descriptor. Descriptors already handed out stay valid.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.classes = make(map[string]*ClassDescriptor)
	c.mu.Unlock()
	c.configured.Purge()
}
