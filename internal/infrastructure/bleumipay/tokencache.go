package bleumipay

import (
	"context"
	"sync"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	lru "github.com/hashicorp/golang-lru"
)

const tokensKey = "tokens"

type cachedTokens struct {
	tokens    []domain.Token
	expiresAt time.Time
}

// TokenCache decorates a gateway so that the hosted checkout token list is
// fetched at most once per ttl. Every other call goes straight through.
type TokenCache struct {
	domain.PaymentGateway

	cache   *lru.Cache
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	metrics *metrics.ReconMetrics
}

func NewTokenCache(gateway domain.PaymentGateway, size int, ttl time.Duration, m *metrics.ReconMetrics) (*TokenCache, error) {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &TokenCache{
		PaymentGateway: gateway,
		cache:          cache,
		ttl:            ttl,
		now:            time.Now,
		metrics:        m,
	}, nil
}

func (c *TokenCache) ListTokens(ctx context.Context) ([]domain.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache.Get(tokensKey); ok {
		entry := v.(cachedTokens)
		if c.now().Before(entry.expiresAt) {
			c.metrics.RecordTokenCache(true)
			return entry.tokens, nil
		}
		c.cache.Remove(tokensKey)
	}
	c.metrics.RecordTokenCache(false)

	tokens, err := c.PaymentGateway.ListTokens(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(tokensKey, cachedTokens{tokens: tokens, expiresAt: c.now().Add(c.ttl)})
	return tokens, nil
}

// Invalidate drops the cached token list.
func (c *TokenCache) Invalidate() {
	c.cache.Purge()
}
