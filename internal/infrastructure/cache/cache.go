package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jhoicas/okr-api/internal/application/ports"
)

// Cache adaptador de ports.Cache sobre go-cache (memoria del proceso, con TTL).
type Cache struct {
	c *gocache.Cache
}

var _ ports.Cache = (*Cache)(nil)

// New crea la caché. defaultTTL se usa cuando Set recibe ttl <= 0;
// cleanup es el intervalo de purga de entradas vencidas.
func New(defaultTTL, cleanup time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, cleanup)}
}

func (c *Cache) Get(key string) (any, bool) {
	return c.c.Get(key)
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.c.Set(key, value, ttl)
}

func (c *Cache) Delete(key string) {
	c.c.Delete(key)
}

// Len entradas almacenadas, incluidas las vencidas aún no purgadas.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}

// Flush vacía la caché.
func (c *Cache) Flush() {
	c.c.Flush()
}
