package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	NetworkEthereum = "ethereum"
	NetworkAlgorand = "algorand"
	NetworkRSK      = "rsk"

	// NativeALGO is the balance key of the Algorand native token.
	NativeALGO = "ALGO"
)

// NetworkChains lists every network/chain pair checked for balances.
type NetworkChains struct {
	Network string
	Chains  []string
}

var SupportedNetworks = []NetworkChains{
	{Network: NetworkEthereum, Chains: []string{"mainnet", "goerli", "xdai_testnet", "xdai"}},
	{Network: NetworkAlgorand, Chains: []string{"alg_mainnet", "alg_testnet"}},
	{Network: NetworkRSK, Chains: []string{"rsk", "rsk_testnet"}},
}

// BalanceEntry is one token balance inside a payment snapshot.
type BalanceEntry struct {
	Balance       decimal.Decimal
	TokenDecimals int
	BlockNum      string
	TokenBalance  string
}

// Balances is keyed by network, chain and token address.
type Balances map[string]map[string]map[string]BalanceEntry

// Chain returns the token balances held on one network/chain.
func (b Balances) Chain(network, chain string) (map[string]BalanceEntry, bool) {
	chains, ok := b[network]
	if !ok {
		return nil, false
	}
	tokens, ok := chains[chain]
	return tokens, ok
}

func (b Balances) Lookup(network, chain, addr string) (BalanceEntry, bool) {
	tokens, ok := b.Chain(network, chain)
	if !ok {
		return BalanceEntry{}, false
	}
	entry, ok := tokens[addr]
	return entry, ok
}

// AddressInfo is a receiving address of a payment on one chain.
type AddressInfo struct {
	Addr string `json:"addr"`
}

// Addresses is keyed by network and chain.
type Addresses map[string]map[string]AddressInfo

type Payment struct {
	ID        string
	Addresses Addresses
	Balances  Balances
	CreatedAt int64
	UpdatedAt int64
}

// TokenBalance is a positive balance of a token accepted for an order.
type TokenBalance struct {
	Network       string
	Chain         string
	Addr          string
	Balance       decimal.Decimal
	TokenDecimals int
	BlockNum      string
	RawBalance    string
}

// PaymentInfo is the result of balance resolution.
type PaymentInfo struct {
	ID            string
	Addresses     Addresses
	TokenBalances []TokenBalance
	CreatedAt     int64
	UpdatedAt     int64
}

// Amount is the balance of the first resolved token, zero when none.
func (p *PaymentInfo) Amount() decimal.Decimal {
	if p == nil || len(p.TokenBalances) == 0 {
		return decimal.Zero
	}
	return p.TokenBalances[0].Balance
}

// Token is a payment token accepted by the hosted checkout.
type Token struct {
	Network  string
	Chain    string
	Addr     string
	Currency string
	Symbol   string
	Name     string
	Decimals int
}

type PaymentPage struct {
	Results   []Payment
	NextToken string
}

// OperationStatus is "yes" once confirmed, "no" on failure and empty while
// the operation is still pending on chain.
type OperationStatus string

const (
	OperationConfirmed OperationStatus = "yes"
	OperationFailed    OperationStatus = "no"
	OperationPending   OperationStatus = ""
)

type OperationInputs struct {
	Token  string
	Amount string
	To     string
}

type Operation struct {
	TxID     string
	Hash     string
	Chain    string
	FuncName string
	Status   OperationStatus
	Inputs   OperationInputs
}

type OperationPage struct {
	Results   []Operation
	NextToken string
}

type CheckoutRequest struct {
	OrderID    string
	Currency   string
	Amount     decimal.Decimal
	SuccessURL string
	CancelURL  string
}

type CheckoutValidation struct {
	HmacAlg   string
	HmacInput string
	HmacKeyID string
	HmacValue string
}

type PaymentListQuery struct {
	NextToken string
	SortBy    string
	SortOrder string
	StartAt   int64
}

// TransferRequest is the body of a settle or refund call.
type TransferRequest struct {
	PaymentID string
	Chain     string
	Token     string
	Amount    decimal.Decimal
}

type OperationResult struct {
	TxID string
}

// PaymentGateway is the façade over the remote payment service. Every
// failure is returned as a *GatewayError.
type PaymentGateway interface {
	CreateCheckoutURL(ctx context.Context, req CheckoutRequest) (string, error)
	ValidateCheckoutPayment(ctx context.Context, v CheckoutValidation) (bool, error)
	ListTokens(ctx context.Context) ([]Token, error)
	ListPayments(ctx context.Context, q PaymentListQuery) (*PaymentPage, error)
	// GetPayment returns nil without error when the payment does not exist.
	GetPayment(ctx context.Context, id string) (*Payment, error)
	ListPaymentOperations(ctx context.Context, id, nextToken string) (*OperationPage, error)
	GetPaymentOperation(ctx context.Context, id, txID string) (*Operation, error)
	SettlePayment(ctx context.Context, req TransferRequest) (*OperationResult, error)
	RefundPayment(ctx context.Context, req TransferRequest) (*OperationResult, error)
}
