package web

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// exportCache memoizes rendered spreadsheets by payload digest and export options.
// Cached bodies are never mutated after Set.
type exportCache struct {
	cache *ristretto.Cache
}

type cachedExport struct {
	body      []byte
	records   int
	malformed int
	layout    string
}

func newExportCache(maxBytes int64) (*exportCache, error) {
	if maxBytes <= 0 {
		return nil, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create export cache: %w", err)
	}
	return &exportCache{cache: cache}, nil
}

func (c *exportCache) get(key string) (cachedExport, bool) {
	if c == nil {
		return cachedExport{}, false
	}
	value, ok := c.cache.Get(key)
	if !ok {
		return cachedExport{}, false
	}
	export, ok := value.(cachedExport)
	return export, ok
}

func (c *exportCache) set(key string, export cachedExport) {
	if c == nil {
		return
	}
	c.cache.Set(key, export, int64(len(export.body)))
	c.cache.Wait()
}

func (c *exportCache) close() {
	if c == nil {
		return
	}
	c.cache.Close()
}

func exportKey(data []byte, parts ...string) string {
	h := sha256.New()
	h.Write(data)
	for _, part := range parts {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
