package bleumipay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const apiKeyHeader = "x-api-key"

// Client talks to the BleumiPay REST API and implements domain.PaymentGateway.
type Client struct {
	baseURL    string
	apiKey     string
	HTTPClient *http.Client
	Tracer     trace.Tracer
	Metrics    *metrics.ReconMetrics
}

func NewClient(cfg config.BleumiPay, m *metrics.ReconMetrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
			},
		},
		Tracer:  otel.Tracer("bleumipay-client"),
		Metrics: m,
	}
}

func (c *Client) CreateCheckoutURL(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	body := createCheckoutRequest{
		ID:              req.OrderID,
		Currency:        req.Currency,
		Amount:          req.Amount.String(),
		SuccessURL:      req.SuccessURL,
		CancelURL:       req.CancelURL,
		Base64Transform: true,
	}
	var resp createCheckoutResponse
	if err := c.do(ctx, "createCheckoutUrl", http.MethodPost, "/payment/hc", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) ValidateCheckoutPayment(ctx context.Context, v domain.CheckoutValidation) (bool, error) {
	body := validateCheckoutRequest{
		HmacAlg:   v.HmacAlg,
		HmacInput: v.HmacInput,
		HmacKeyID: v.HmacKeyID,
		HmacValue: v.HmacValue,
	}
	var resp validateCheckoutResponse
	if err := c.do(ctx, "validateCheckoutPayment", http.MethodPost, "/payment/hc/validate", nil, body, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

func (c *Client) ListTokens(ctx context.Context) ([]domain.Token, error) {
	var resp []tokenResponse
	if err := c.do(ctx, "listTokens", http.MethodGet, "/payment/hc/tokens", nil, nil, &resp); err != nil {
		return nil, err
	}
	tokens := make([]domain.Token, len(resp))
	for i, t := range resp {
		tokens[i] = toDomainToken(t)
	}
	return tokens, nil
}

func (c *Client) ListPayments(ctx context.Context, q domain.PaymentListQuery) (*domain.PaymentPage, error) {
	query := url.Values{}
	if q.NextToken != "" {
		query.Set("nextToken", q.NextToken)
	}
	if q.SortBy != "" {
		query.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		query.Set("sortOrder", q.SortOrder)
	}
	if q.StartAt > 0 {
		query.Set("startAt", strconv.FormatInt(q.StartAt, 10))
	}

	var resp paymentListResponse
	if err := c.do(ctx, "listPayments", http.MethodGet, "/payment", query, nil, &resp); err != nil {
		return nil, err
	}

	page := &domain.PaymentPage{
		Results:   make([]domain.Payment, 0, len(resp.Results)),
		NextToken: resp.NextToken,
	}
	for i := range resp.Results {
		payment, err := toDomainPayment(&resp.Results[i])
		if err != nil {
			return nil, &domain.GatewayError{Op: "listPayments", Code: domain.CodeLookupFailed, Message: err.Error()}
		}
		page.Results = append(page.Results, *payment)
	}
	return page, nil
}

func (c *Client) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	var resp paymentResponse
	err := c.do(ctx, "getPayment", http.MethodGet, "/payment/"+url.PathEscape(id), nil, nil, &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	payment, err := toDomainPayment(&resp)
	if err != nil {
		return nil, &domain.GatewayError{Op: "getPayment", Code: domain.CodeLookupFailed, Message: err.Error()}
	}
	return payment, nil
}

func (c *Client) ListPaymentOperations(ctx context.Context, id, nextToken string) (*domain.OperationPage, error) {
	query := url.Values{}
	if nextToken != "" {
		query.Set("nextToken", nextToken)
	}

	var resp operationListResponse
	path := fmt.Sprintf("/payment/%s/operation", url.PathEscape(id))
	if err := c.do(ctx, "listPaymentOperations", http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}

	page := &domain.OperationPage{
		Results:   make([]domain.Operation, len(resp.Results)),
		NextToken: resp.NextToken,
	}
	for i := range resp.Results {
		page.Results[i] = toDomainOperation(&resp.Results[i])
	}
	return page, nil
}

func (c *Client) GetPaymentOperation(ctx context.Context, id, txID string) (*domain.Operation, error) {
	var resp operationResponse
	path := fmt.Sprintf("/payment/%s/operation/%s", url.PathEscape(id), url.PathEscape(txID))
	if err := c.do(ctx, "getPaymentOperation", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	op := toDomainOperation(&resp)
	return &op, nil
}

func (c *Client) SettlePayment(ctx context.Context, req domain.TransferRequest) (*domain.OperationResult, error) {
	body := transferRequest{Token: req.Token, Amount: req.Amount.String()}
	return c.transfer(ctx, "settlePayment", "settle", req, body)
}

func (c *Client) RefundPayment(ctx context.Context, req domain.TransferRequest) (*domain.OperationResult, error) {
	body := transferRequest{Token: req.Token}
	if req.Amount.IsPositive() {
		body.Amount = req.Amount.String()
	}
	return c.transfer(ctx, "refundPayment", "refund", req, body)
}

func (c *Client) transfer(ctx context.Context, op, action string, req domain.TransferRequest, body transferRequest) (*domain.OperationResult, error) {
	query := url.Values{}
	query.Set("chain", req.Chain)

	var resp transferResponse
	path := fmt.Sprintf("/payment/%s/%s", url.PathEscape(req.PaymentID), action)
	if err := c.do(ctx, op, http.MethodPost, path, query, body, &resp); err != nil {
		return nil, err
	}
	return &domain.OperationResult{TxID: resp.TxID}, nil
}

// do runs one API call inside a client span. Failures come back as
// *domain.GatewayError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out interface{}) (err error) {
	ctx, span := c.Tracer.Start(ctx, "bleumipay."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	started := time.Now()
	defer func() {
		ok := err == nil || isNotFound(err)
		c.Metrics.RecordGatewayCall(op, ok, time.Since(started).Seconds())
		if !ok {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &domain.GatewayError{Op: op, Code: domain.CodeLookupFailed, Message: err.Error()}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &domain.GatewayError{Op: op, Code: domain.CodeLookupFailed, Message: err.Error()}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", endpoint),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &domain.GatewayError{Op: op, Code: domain.CodeLookupFailed, Message: err.Error()}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.GatewayError{Op: op, Code: domain.CodeLookupFailed, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.GatewayError{
			Op:         op,
			Code:       domain.CodeLookupFailed,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &domain.GatewayError{
			Op:         op,
			Code:       domain.CodeLookupFailed,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%v: %v", domain.ErrMalformedPayload, err),
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var gwErr *domain.GatewayError
	return errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound
}

func errorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorMessage != "" {
		if errResp.ErrorCode != "" {
			return errResp.ErrorCode + ": " + errResp.ErrorMessage
		}
		return errResp.ErrorMessage
	}
	return strings.TrimSpace(string(body))
}
