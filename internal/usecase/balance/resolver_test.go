package balance

import (
	"context"
	"errors"
	"testing"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/usecasetest"
	"github.com/shopspring/decimal"
)

func usdOrder(id string) *domain.Order {
	return &domain.Order{ID: id, Currency: "USD", TotalAmount: decimal.NewFromInt(3)}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("native ALGO next to an ASA is dropped", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.USDToken(domain.NetworkAlgorand, "alg_testnet", "ASA1")
		gw.USDToken(domain.NetworkAlgorand, "alg_testnet", domain.NativeALGO)
		gw.SetBalance("1", domain.NetworkAlgorand, "alg_testnet", domain.NativeALGO, 5)
		gw.SetBalance("1", domain.NetworkAlgorand, "alg_testnet", "ASA1", 3)

		info, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), nil)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(info.TokenBalances) != 1 || info.TokenBalances[0].Addr != "ASA1" || !info.Amount().Equal(decimal.NewFromInt(3)) {
			t.Fatalf("balances = %+v, want ASA1:3", info.TokenBalances)
		}
	})

	t.Run("lone native ALGO is kept", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.USDToken(domain.NetworkAlgorand, "alg_testnet", domain.NativeALGO)
		gw.SetBalance("1", domain.NetworkAlgorand, "alg_testnet", domain.NativeALGO, 5)

		info, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), nil)
		if err != nil || len(info.TokenBalances) != 1 || info.TokenBalances[0].Addr != domain.NativeALGO {
			t.Fatalf("Resolve() = %+v, %v", info, err)
		}
	})

	t.Run("two tokens is a multitoken payment", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.USDToken(domain.NetworkEthereum, "mainnet", "tokenA")
		gw.USDToken(domain.NetworkEthereum, "mainnet", "tokenB")
		gw.SetBalance("1", domain.NetworkEthereum, "mainnet", "tokenA", 10)
		gw.SetBalance("1", domain.NetworkEthereum, "mainnet", "tokenB", 5)

		info, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), nil)
		if !errors.Is(err, domain.ErrMultiTokenPayment) || domain.ResolveCode(err) != domain.CodeMultitoken {
			t.Fatalf("Resolve() error = %v, want multitoken", err)
		}
		if info == nil || info.ID != "1" {
			t.Errorf("info = %+v, want payment info alongside the error", info)
		}
	})

	t.Run("tokens of another currency still count as multitoken", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.USDToken(domain.NetworkEthereum, "goerli", "0xT")
		gw.SetBalance("1", domain.NetworkEthereum, "goerli", "0xT", 10)
		gw.SetBalance("1", domain.NetworkRSK, "rsk", "0xEUR", 10)

		_, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), nil)
		if !errors.Is(err, domain.ErrMultiTokenPayment) {
			t.Fatalf("Resolve() error = %v, want multitoken", err)
		}
	})

	t.Run("balance outside the order currency is not selected", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.Tokens = []domain.Token{{Network: domain.NetworkEthereum, Chain: "goerli", Addr: "0xE", Currency: "EUR"}}
		gw.SetBalance("1", domain.NetworkEthereum, "goerli", "0xE", 10)

		info, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), nil)
		if err != nil || len(info.TokenBalances) != 0 || !info.Amount().IsZero() {
			t.Fatalf("Resolve() = %+v, %v, want no balance", info, err)
		}
	})

	t.Run("currency match ignores case and duplicate tokens", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.Tokens = []domain.Token{
			{Network: domain.NetworkEthereum, Chain: "goerli", Addr: "0xT", Currency: "usd"},
			{Network: domain.NetworkEthereum, Chain: "goerli", Addr: "0xT", Currency: "USD"},
		}
		gw.SetBalance("1", domain.NetworkEthereum, "goerli", "0xT", 10)

		info, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), nil)
		if err != nil || len(info.TokenBalances) != 1 {
			t.Fatalf("Resolve() = %+v, %v", info, err)
		}
	})

	t.Run("missing payment is empty", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		info, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("404"), nil)
		if err != nil || info.ID != "404" || len(info.TokenBalances) != 0 {
			t.Fatalf("Resolve() = %+v, %v", info, err)
		}
	})

	t.Run("gateway failure is a lookup error", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.GetPaymentErr = &domain.GatewayError{Op: "getPayment", Code: domain.CodeLookupFailed, Message: "boom"}

		_, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), nil)
		if !errors.Is(err, domain.ErrBalanceLookup) || domain.ResolveCode(err) != domain.CodeLookupFailed {
			t.Fatalf("Resolve() error = %v, want lookup failure", err)
		}
		var gwErr *domain.GatewayError
		if !errors.As(err, &gwErr) {
			t.Errorf("cause not wrapped: %v", err)
		}
	})

	t.Run("supplied payment is not refetched", func(t *testing.T) {
		gw := usecasetest.NewGateway()
		gw.USDToken(domain.NetworkEthereum, "goerli", "0xT")
		gw.SetBalance("1", domain.NetworkEthereum, "goerli", "0xT", 7)
		payment := *gw.Payments["1"]

		info, err := NewDefaultResolver(gw).Resolve(ctx, usdOrder("1"), &payment)
		if err != nil || !info.Amount().Equal(decimal.NewFromInt(7)) {
			t.Fatalf("Resolve() = %+v, %v", info, err)
		}
		if len(gw.GetPaymentIDs) != 0 {
			t.Errorf("getPayment called %v", gw.GetPaymentIDs)
		}
	})
}

func TestPositiveBalancesIgnoresUnknownChains(t *testing.T) {
	balances := domain.Balances{
		domain.NetworkEthereum: {
			"goerli":  {"0xB": {Balance: decimal.NewFromInt(1)}, "0xA": {Balance: decimal.NewFromInt(2)}, "0xZ": {Balance: decimal.Zero}},
			"ropsten": {"0xC": {Balance: decimal.NewFromInt(3)}},
		},
	}
	got := PositiveBalances(balances)
	if len(got) != 2 || got[0].Addr != "0xA" || got[1].Addr != "0xB" {
		t.Fatalf("PositiveBalances() = %+v", got)
	}
}
