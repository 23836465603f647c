package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache guarda respostas 2xx do provedor por um TTL curto,
// reduzindo consumo de cota em chamadas repetidas
// Um ponteiro nil desativa o cache de forma transparente
type ResponseCache struct{ R *redis.Client }

func NewResponseCache(r *redis.Client) *ResponseCache { return &ResponseCache{R: r} }

const responseTTL = 30 * time.Second

func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "oddsapi:" + hex.EncodeToString(sum[:16])
}

func (c *ResponseCache) Get(ctx context.Context, rawURL string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	b, err := c.R.Get(ctx, cacheKey(rawURL)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *ResponseCache) Set(ctx context.Context, rawURL string, v any) error {
	if c == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, cacheKey(rawURL), b, responseTTL).Err()
}
