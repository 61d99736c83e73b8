package advice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dvloznov/finance-chat/internal/domain"
)

// TipCache stores model-generated tips for a transaction history.
type TipCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, tips []string) error
}

// RedisTipCache keeps tips in Redis as JSON with a TTL.
type RedisTipCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTipCache connects using a redis:// URL.
func NewRedisTipCache(url string, ttl time.Duration) (*RedisTipCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedisTipCache: parse url: %w", err)
	}
	return NewRedisTipCacheWithClient(redis.NewClient(opts), ttl), nil
}

func NewRedisTipCacheWithClient(client *redis.Client, ttl time.Duration) *RedisTipCache {
	return &RedisTipCache{client: client, prefix: "finchat:tips:", ttl: ttl}
}

func (c *RedisTipCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("RedisTipCache.Get: %w", err)
	}

	var tips []string
	if err := json.Unmarshal([]byte(val), &tips); err != nil {
		return nil, false, fmt.Errorf("RedisTipCache.Get: decode: %w", err)
	}
	return tips, true, nil
}

func (c *RedisTipCache) Set(ctx context.Context, key string, tips []string) error {
	data, err := json.Marshal(tips)
	if err != nil {
		return fmt.Errorf("RedisTipCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("RedisTipCache.Set: %w", err)
	}
	return nil
}

func (c *RedisTipCache) Close() error {
	return c.client.Close()
}

// historyKey fingerprints a transaction history independent of order, so
// any added, edited or removed transaction yields a new key.
func historyKey(txs []domain.TransactionRecord) string {
	lines := make([]string, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines, tx.ID+"|"+string(tx.Type)+"|"+
			strconv.FormatFloat(tx.Amount, 'f', -1, 64)+"|"+string(tx.Category)+"|"+tx.Description)
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
