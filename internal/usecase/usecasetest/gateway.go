// Package usecasetest holds in-memory collaborators for usecase tests.
package usecasetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Gateway is a scripted domain.PaymentGateway that records every call.
type Gateway struct {
	mu sync.Mutex

	Tokens       []domain.Token
	Payments     map[string]*domain.Payment
	PaymentPages []domain.PaymentPage
	// Operations are keyed by payment id then txid.
	Operations     map[string]map[string]*domain.Operation
	OperationPages map[string][]domain.OperationPage
	CheckoutURL    string
	ValidHmac      string

	GetPaymentErr   error
	ListTokensErr   error
	ListPaymentsErr error
	OperationErr    error
	SettleErr       error
	RefundErr       error
	CheckoutErr     error

	txSeq int

	Settles        []domain.TransferRequest
	Refunds        []domain.TransferRequest
	PaymentQueries []domain.PaymentListQuery
	OperationCalls []string
	Checkouts      []domain.CheckoutRequest
	GetPaymentIDs  []string
}

func NewGateway() *Gateway {
	return &Gateway{
		Payments:       make(map[string]*domain.Payment),
		Operations:     make(map[string]map[string]*domain.Operation),
		OperationPages: make(map[string][]domain.OperationPage),
	}
}

// USDToken registers a token accepted for USD orders.
func (g *Gateway) USDToken(network, chain, addr string) {
	g.Tokens = append(g.Tokens, domain.Token{Network: network, Chain: chain, Addr: addr, Currency: "USD"})
}

// SetBalance stores a positive balance on payment id, creating it on demand.
func (g *Gateway) SetBalance(id, network, chain, addr string, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.Payments[id]
	if !ok {
		p = &domain.Payment{ID: id, Balances: domain.Balances{}, Addresses: domain.Addresses{}}
		g.Payments[id] = p
	}
	if p.Balances[network] == nil {
		p.Balances[network] = map[string]map[string]domain.BalanceEntry{}
	}
	if p.Balances[network][chain] == nil {
		p.Balances[network][chain] = map[string]domain.BalanceEntry{}
	}
	p.Balances[network][chain][addr] = domain.BalanceEntry{Balance: decimal.NewFromInt(amount)}
	if p.Addresses[network] == nil {
		p.Addresses[network] = map[string]domain.AddressInfo{}
	}
	p.Addresses[network][chain] = domain.AddressInfo{Addr: "addr-" + id}
}

// SetOperation stores the on-chain state of a dispatched operation.
func (g *Gateway) SetOperation(id string, op domain.Operation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Operations[id] == nil {
		g.Operations[id] = map[string]*domain.Operation{}
	}
	g.Operations[id][op.TxID] = &op
}

func (g *Gateway) CreateCheckoutURL(_ context.Context, req domain.CheckoutRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Checkouts = append(g.Checkouts, req)
	if g.CheckoutErr != nil {
		return "", g.CheckoutErr
	}
	return g.CheckoutURL, nil
}

func (g *Gateway) ValidateCheckoutPayment(_ context.Context, v domain.CheckoutValidation) (bool, error) {
	if g.CheckoutErr != nil {
		return false, g.CheckoutErr
	}
	return v.HmacValue != "" && v.HmacValue == g.ValidHmac, nil
}

func (g *Gateway) ListTokens(context.Context) ([]domain.Token, error) {
	if g.ListTokensErr != nil {
		return nil, g.ListTokensErr
	}
	return g.Tokens, nil
}

func (g *Gateway) ListPayments(_ context.Context, q domain.PaymentListQuery) (*domain.PaymentPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PaymentQueries = append(g.PaymentQueries, q)
	if g.ListPaymentsErr != nil {
		return nil, g.ListPaymentsErr
	}
	if len(g.PaymentPages) == 0 {
		return &domain.PaymentPage{}, nil
	}
	if q.NextToken == "" {
		page := g.PaymentPages[0]
		return &page, nil
	}
	for i := 1; i < len(g.PaymentPages); i++ {
		if g.PaymentPages[i-1].NextToken == q.NextToken {
			page := g.PaymentPages[i]
			return &page, nil
		}
	}
	return nil, &domain.GatewayError{Op: "listPayments", Code: domain.CodeLookupFailed, Message: "unknown token " + q.NextToken}
}

func (g *Gateway) GetPayment(_ context.Context, id string) (*domain.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.GetPaymentIDs = append(g.GetPaymentIDs, id)
	if g.GetPaymentErr != nil {
		return nil, g.GetPaymentErr
	}
	p, ok := g.Payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (g *Gateway) ListPaymentOperations(_ context.Context, id, nextToken string) (*domain.OperationPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.OperationCalls = append(g.OperationCalls, id+"?"+nextToken)
	if g.OperationErr != nil {
		return nil, g.OperationErr
	}
	pages := g.OperationPages[id]
	if len(pages) == 0 {
		return &domain.OperationPage{}, nil
	}
	if nextToken == "" {
		page := pages[0]
		return &page, nil
	}
	for i := 1; i < len(pages); i++ {
		if pages[i-1].NextToken == nextToken {
			page := pages[i]
			return &page, nil
		}
	}
	return nil, &domain.GatewayError{Op: "listPaymentOperations", Code: domain.CodeLookupFailed, Message: "unknown token " + nextToken}
}

func (g *Gateway) GetPaymentOperation(_ context.Context, id, txID string) (*domain.Operation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.OperationErr != nil {
		return nil, g.OperationErr
	}
	op, ok := g.Operations[id][txID]
	if !ok {
		return nil, &domain.GatewayError{Op: "getPaymentOperation", Code: domain.CodeLookupFailed, StatusCode: 404, Message: "operation not found"}
	}
	cp := *op
	return &cp, nil
}

func (g *Gateway) SettlePayment(_ context.Context, req domain.TransferRequest) (*domain.OperationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Settles = append(g.Settles, req)
	if g.SettleErr != nil {
		return nil, g.SettleErr
	}
	g.txSeq++
	return &domain.OperationResult{TxID: fmt.Sprintf("settle-%d", g.txSeq)}, nil
}

func (g *Gateway) RefundPayment(_ context.Context, req domain.TransferRequest) (*domain.OperationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Refunds = append(g.Refunds, req)
	if g.RefundErr != nil {
		return nil, g.RefundErr
	}
	g.txSeq++
	return &domain.OperationResult{TxID: fmt.Sprintf("refund-%d", g.txSeq)}, nil
}
