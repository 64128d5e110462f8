package bleumipay

import (
	"fmt"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/shopspring/decimal"
)

// toDomainPayment validates the nested balance map. A payload with a missing
// or non-numeric balance is rejected as a whole.
func toDomainPayment(p *paymentResponse) (*domain.Payment, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: payment without id", domain.ErrMalformedPayload)
	}

	balances := make(domain.Balances, len(p.Balances))
	for network, chains := range p.Balances {
		if network == "" {
			return nil, fmt.Errorf("%w: payment %s: empty network key", domain.ErrMalformedPayload, p.ID)
		}
		balances[network] = make(map[string]map[string]domain.BalanceEntry, len(chains))
		for chain, tokens := range chains {
			if chain == "" {
				return nil, fmt.Errorf("%w: payment %s: empty chain key on %s", domain.ErrMalformedPayload, p.ID, network)
			}
			entries := make(map[string]domain.BalanceEntry, len(tokens))
			for addr, raw := range tokens {
				if raw.Balance == "" {
					return nil, fmt.Errorf("%w: payment %s: %s/%s/%s has no balance", domain.ErrMalformedPayload, p.ID, network, chain, addr)
				}
				amount, err := decimal.NewFromString(raw.Balance.String())
				if err != nil {
					return nil, fmt.Errorf("%w: payment %s: %s/%s/%s balance %q", domain.ErrMalformedPayload, p.ID, network, chain, addr, raw.Balance)
				}
				entries[addr] = domain.BalanceEntry{
					Balance:       amount,
					TokenDecimals: raw.TokenDecimals,
					BlockNum:      raw.BlockNum,
					TokenBalance:  raw.TokenBalance,
				}
			}
			balances[network][chain] = entries
		}
	}

	addresses := make(domain.Addresses, len(p.Addresses))
	for network, chains := range p.Addresses {
		addresses[network] = make(map[string]domain.AddressInfo, len(chains))
		for chain, addr := range chains {
			addresses[network][chain] = domain.AddressInfo{Addr: addr.Addr}
		}
	}

	return &domain.Payment{
		ID:        p.ID,
		Addresses: addresses,
		Balances:  balances,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func toDomainOperation(o *operationResponse) domain.Operation {
	op := domain.Operation{
		TxID:     o.TxID,
		Chain:    o.Chain,
		FuncName: o.FuncName,
		Inputs: domain.OperationInputs{
			Token:  o.Inputs.Token,
			Amount: o.Inputs.Amount,
			To:     o.Inputs.To,
		},
	}
	if o.Hash != nil {
		op.Hash = *o.Hash
	}
	if o.Status != nil {
		op.Status = domain.OperationStatus(*o.Status)
	}
	return op
}

func toDomainToken(t tokenResponse) domain.Token {
	return domain.Token{
		Network:  t.Network,
		Chain:    t.Chain,
		Addr:     t.Addr,
		Currency: t.Currency,
		Symbol:   t.Symbol,
		Name:     t.Name,
		Decimals: t.Decimals,
	}
}
