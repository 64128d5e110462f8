package request

type CreateCheckoutRequest struct {
	SuccessURL string `json:"success_url" binding:"required,url"`
	CancelURL  string `json:"cancel_url" binding:"required,url"`
}

// ReturnQuery carries the signature appended to the return URL by the
// hosted checkout.
type ReturnQuery struct {
	HmacAlg   string `form:"hmac_alg"`
	HmacInput string `form:"hmac_input"`
	HmacKeyID string `form:"hmac_keyId"`
	HmacValue string `form:"hmac_value" binding:"required"`
}
