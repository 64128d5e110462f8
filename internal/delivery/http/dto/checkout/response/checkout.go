package response

type CheckoutResponse struct {
	OrderID string `json:"order_id"`
	URL     string `json:"url"`
}

type ReturnResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
