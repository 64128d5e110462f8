package bleumipay

import "encoding/json"

type createCheckoutRequest struct {
	ID              string `json:"id"`
	Currency        string `json:"currency"`
	Amount          string `json:"amount"`
	SuccessURL      string `json:"successUrl"`
	CancelURL       string `json:"cancelUrl"`
	Base64Transform bool   `json:"base64Transform"`
}

type createCheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type validateCheckoutRequest struct {
	HmacAlg   string `json:"hmac_alg"`
	HmacInput string `json:"hmac_input"`
	HmacKeyID string `json:"hmac_keyId"`
	HmacValue string `json:"hmac_value"`
}

type validateCheckoutResponse struct {
	Valid bool `json:"valid"`
}

type tokenResponse struct {
	Network  string `json:"network"`
	Chain    string `json:"chain"`
	Addr     string `json:"addr"`
	Currency string `json:"currency"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

type balanceResponse struct {
	Balance       json.Number `json:"balance"`
	TokenDecimals int         `json:"token_decimals"`
	BlockNum      string      `json:"blockNum"`
	TokenBalance  string      `json:"token_balance"`
}

type paymentResponse struct {
	ID        string                                           `json:"id"`
	Addresses map[string]map[string]addressResponse            `json:"addresses"`
	Balances  map[string]map[string]map[string]balanceResponse `json:"balances"`
	CreatedAt int64                                            `json:"created_at"`
	UpdatedAt int64                                            `json:"updated_at"`
}

type addressResponse struct {
	Addr string `json:"addr"`
}

type paymentListResponse struct {
	Results   []paymentResponse `json:"results"`
	NextToken string            `json:"next_token"`
}

type operationInputsResponse struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
	To     string `json:"to"`
}

type operationResponse struct {
	TxID     string                  `json:"txid"`
	Hash     *string                 `json:"hash"`
	Chain    string                  `json:"chain"`
	FuncName string                  `json:"func_name"`
	Status   *string                 `json:"status"`
	Inputs   operationInputsResponse `json:"inputs"`
}

type operationListResponse struct {
	Results   []operationResponse `json:"results"`
	NextToken string              `json:"next_token"`
}

type transferRequest struct {
	Token  string `json:"token"`
	Amount string `json:"amount,omitempty"`
}

type transferResponse struct {
	TxID string `json:"txid"`
}

type errorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}
