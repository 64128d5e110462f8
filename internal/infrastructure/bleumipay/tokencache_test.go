package bleumipay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
)

type countingGateway struct {
	domain.PaymentGateway
	calls int
	err   error
}

func (g *countingGateway) ListTokens(ctx context.Context) ([]domain.Token, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []domain.Token{{Network: "ethereum", Chain: "goerli", Addr: "0xT", Currency: "USD"}}, nil
}

func TestTokenCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	gw := &countingGateway{}
	cache, err := NewTokenCache(gw, 4, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewTokenCache() error = %v", err)
	}
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		tokens, err := cache.ListTokens(ctx)
		if err != nil || len(tokens) != 1 {
			t.Fatalf("ListTokens() = %v, %v", tokens, err)
		}
	}
	if gw.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", gw.calls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := cache.ListTokens(ctx); err != nil {
		t.Fatal(err)
	}
	if gw.calls != 2 {
		t.Fatalf("upstream calls after expiry = %d, want 2", gw.calls)
	}

	cache.Invalidate()
	if _, err := cache.ListTokens(ctx); err != nil {
		t.Fatal(err)
	}
	if gw.calls != 3 {
		t.Fatalf("upstream calls after invalidate = %d, want 3", gw.calls)
	}
}

func TestTokenCacheDoesNotStoreFailures(t *testing.T) {
	gw := &countingGateway{err: errors.New("boom")}
	cache, err := NewTokenCache(gw, 1, time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := cache.ListTokens(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	gw.err = nil
	if _, err := cache.ListTokens(context.Background()); err != nil {
		t.Fatalf("ListTokens() error = %v", err)
	}
	if gw.calls != 2 {
		t.Fatalf("upstream calls = %d, want 2", gw.calls)
	}
}
