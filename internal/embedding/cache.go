package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sheorananshul/contract-analyzer/internal/cache"
)

// CachedClient decorates an embedding client with a vector cache.
// Keys include the model name so two models never share vectors.
type CachedClient struct {
	client Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedClient wraps a client with a cache.
func NewCachedClient(client Client, c cache.Cache, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClient{client: client, cache: c, ttl: ttl}
}

// Name returns the underlying model identifier.
func (c *CachedClient) Name() string {
	return c.client.Name()
}

// Dimensions returns the underlying vector dimensionality.
func (c *CachedClient) Dimensions() int {
	return c.client.Dimensions()
}

// Embed returns the cached vector when available, otherwise delegates and
// stores the result. Cache failures fall through to the client.
func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if cached, found, err := c.cache.Get(key); err == nil && found {
		var vector []float32
		if err := json.Unmarshal([]byte(cached), &vector); err == nil {
			return vector, nil
		}
	}

	vector, err := c.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		_ = c.cache.Set(key, string(data), c.ttl)
	}

	return vector, nil
}

// EmbedBatch serves cached vectors where possible and only sends the
// misses to the underlying client.
func (c *CachedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var missTexts []string
	var missIndices []int

	for i, text := range texts {
		if cached, found, err := c.cache.Get(c.cacheKey(text)); err == nil && found {
			var vector []float32
			if err := json.Unmarshal([]byte(cached), &vector); err == nil {
				results[i] = vector
				continue
			}
		}
		missTexts = append(missTexts, text)
		missIndices = append(missIndices, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := c.client.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for i, vector := range vectors {
		idx := missIndices[i]
		results[idx] = vector
		if data, err := json.Marshal(vector); err == nil {
			_ = c.cache.Set(c.cacheKey(texts[idx]), string(data), c.ttl)
		}
	}

	return results, nil
}

// cacheKey hashes the text so keys stay bounded regardless of chunk size.
func (c *CachedClient) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cache.GenerateCacheKey("emb", c.client.Name(), hex.EncodeToString(sum[:]))
}
