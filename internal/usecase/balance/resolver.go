package balance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
)

// Resolver computes the settleable token balance of an order.
type Resolver interface {
	// Resolve inspects payment, or fetches it when nil. A missing payment
	// yields an empty PaymentInfo. Errors wrap domain.ErrBalanceLookup or
	// domain.ErrMultiTokenPayment; the latter still returns the payment info.
	Resolve(ctx context.Context, order *domain.Order, payment *domain.Payment) (*domain.PaymentInfo, error)
}

type DefaultResolver struct {
	Gateway domain.PaymentGateway
}

func NewDefaultResolver(gateway domain.PaymentGateway) *DefaultResolver {
	return &DefaultResolver{Gateway: gateway}
}

func (r *DefaultResolver) Resolve(ctx context.Context, order *domain.Order, payment *domain.Payment) (*domain.PaymentInfo, error) {
	if payment == nil {
		fetched, err := r.Gateway.GetPayment(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: get payment %s: %w", domain.ErrBalanceLookup, order.ID, err)
		}
		if fetched == nil {
			slog.Info("no payment found for order", "order_id", order.ID)
			return &domain.PaymentInfo{ID: order.ID}, nil
		}
		payment = fetched
	}

	info := &domain.PaymentInfo{
		ID:        payment.ID,
		Addresses: payment.Addresses,
		CreatedAt: payment.CreatedAt,
		UpdatedAt: payment.UpdatedAt,
	}

	// Multitoken detection ignores the store currency: a customer may have
	// paid in a token the store does not list.
	if held := SuppressALGO(PositiveBalances(payment.Balances)); len(held) > 1 {
		return info, fmt.Errorf("%w: payment %s holds %d tokens", domain.ErrMultiTokenPayment, payment.ID, len(held))
	}

	tokens, err := r.Gateway.ListTokens(ctx)
	if err != nil {
		return info, fmt.Errorf("%w: list tokens: %w", domain.ErrBalanceLookup, err)
	}

	selected := SuppressALGO(currencyBalances(payment.Balances, tokens, order.Currency))
	info.TokenBalances = selected
	if len(selected) > 1 {
		return info, fmt.Errorf("%w: payment %s holds %d %s tokens", domain.ErrMultiTokenPayment, payment.ID, len(selected), order.Currency)
	}
	if len(selected) == 0 {
		slog.Info("no token balance found", "order_id", order.ID, "currency", order.Currency)
	}
	return info, nil
}

// PositiveBalances lists every positive balance on the supported networks,
// in a stable order.
func PositiveBalances(balances domain.Balances) []domain.TokenBalance {
	var out []domain.TokenBalance
	for _, nc := range domain.SupportedNetworks {
		for _, chain := range nc.Chains {
			tokens, ok := balances.Chain(nc.Network, chain)
			if !ok {
				continue
			}
			addrs := make([]string, 0, len(tokens))
			for addr := range tokens {
				addrs = append(addrs, addr)
			}
			sort.Strings(addrs)
			for _, addr := range addrs {
				if entry := tokens[addr]; entry.Balance.IsPositive() {
					out = append(out, toTokenBalance(nc.Network, chain, addr, entry))
				}
			}
		}
	}
	return out
}

func currencyBalances(balances domain.Balances, tokens []domain.Token, currency string) []domain.TokenBalance {
	var out []domain.TokenBalance
	seen := make(map[string]bool)
	for _, t := range tokens {
		if !strings.EqualFold(t.Currency, currency) || t.Network == "" || t.Chain == "" || t.Addr == "" {
			continue
		}
		key := t.Network + "/" + t.Chain + "/" + t.Addr
		if seen[key] {
			continue
		}
		seen[key] = true

		entry, ok := balances.Lookup(t.Network, t.Chain, t.Addr)
		if !ok || !entry.Balance.IsPositive() {
			continue
		}
		out = append(out, toTokenBalance(t.Network, t.Chain, t.Addr, entry))
	}
	return out
}

// SuppressALGO drops native ALGO balances when an Algorand ASA also holds a
// positive balance. Native ALGO left over next to an ASA is fee dust.
func SuppressALGO(balances []domain.TokenBalance) []domain.TokenBalance {
	asaFound := false
	for _, b := range balances {
		if b.Network == domain.NetworkAlgorand && b.Addr != domain.NativeALGO {
			asaFound = true
			break
		}
	}
	if !asaFound {
		return balances
	}

	out := make([]domain.TokenBalance, 0, len(balances))
	for _, b := range balances {
		if b.Network == domain.NetworkAlgorand && b.Addr == domain.NativeALGO {
			continue
		}
		out = append(out, b)
	}
	return out
}

func toTokenBalance(network, chain, addr string, entry domain.BalanceEntry) domain.TokenBalance {
	return domain.TokenBalance{
		Network:       network,
		Chain:         chain,
		Addr:          addr,
		Balance:       entry.Balance,
		TokenDecimals: entry.TokenDecimals,
		BlockNum:      entry.BlockNum,
		RawBalance:    entry.TokenBalance,
	}
}
