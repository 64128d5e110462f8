package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	checkoutResponse "github.com/LavaJover/shvark-bleumipay-service/internal/delivery/http/dto/checkout/response"
	crondto "github.com/LavaJover/shvark-bleumipay-service/internal/delivery/http/dto/cron"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/jobs"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type runnerFunc func(ctx context.Context, id string) error

func (f runnerFunc) Run(ctx context.Context, id string) error { return f(ctx, id) }

type mockCheckout struct {
	createFunc func(orderID, successURL, cancelURL string) (string, error)
	returnFunc func(orderID string, v domain.CheckoutValidation) error
}

func (m *mockCheckout) CreateCheckout(_ context.Context, orderID, successURL, cancelURL string) (string, error) {
	return m.createFunc(orderID, successURL, cancelURL)
}

func (m *mockCheckout) HandleReturn(_ context.Context, orderID string, v domain.CheckoutValidation) error {
	return m.returnFunc(orderID, v)
}

func setupRouter(runner JobRunner, uc *mockCheckout) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewCronHandler(runner), NewCheckoutHandler(uc), prometheus.NewRegistry())
}

func TestCronHandler(t *testing.T) {
	var ran []string
	runner := runnerFunc(func(_ context.Context, id string) error {
		switch id {
		case "order":
			ran = append(ran, id)
			return nil
		case "retry":
			return fmt.Errorf("%w: retry", domain.ErrJobLocked)
		case "payment":
			return fmt.Errorf("payment job: boom")
		}
		return fmt.Errorf("%w: %q", domain.ErrUnknownJob, id)
	})
	router := setupRouter(runner, &mockCheckout{})

	tests := []struct {
		query  string
		status int
	}{
		{"?id=order", http.StatusOK},
		{"?id=retry", http.StatusConflict},
		{"?id=payment", http.StatusInternalServerError},
		{"?id=nope", http.StatusBadRequest},
		{"", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron"+tt.query, nil))
		if w.Code != tt.status {
			t.Errorf("GET /cron%s status = %d, want %d", tt.query, w.Code, tt.status)
		}
		if tt.status == http.StatusBadRequest && w.Body.String() != jobs.InvalidJobMessage {
			t.Errorf("GET /cron%s body = %q", tt.query, w.Body.String())
		}
	}

	if len(ran) != 1 {
		t.Errorf("runs = %v", ran)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron?id=order", nil))
	var resp crondto.RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Success || resp.Job != "order" {
		t.Errorf("response = %+v, %v", resp, err)
	}
}

func TestCheckoutHandler(t *testing.T) {
	uc := &mockCheckout{
		createFunc: func(orderID, successURL, cancelURL string) (string, error) {
			if orderID == "missing" {
				return "", domain.ErrOrderNotFound
			}
			return "https://pay.example/" + orderID, nil
		},
		returnFunc: func(orderID string, v domain.CheckoutValidation) error {
			if v.HmacValue != "good" || v.HmacKeyID != "k1" {
				return domain.ErrInvalidCheckout
			}
			return nil
		},
	}
	router := setupRouter(runnerFunc(func(context.Context, string) error { return nil }), uc)

	t.Run("create", func(t *testing.T) {
		body := `{"success_url":"https://shop.example/ok","cancel_url":"https://shop.example/cancel"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout/1", strings.NewReader(body)))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp checkoutResponse.CheckoutResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.URL != "https://pay.example/1" {
			t.Errorf("url = %q", resp.URL)
		}
	})

	t.Run("create for unknown order", func(t *testing.T) {
		body := `{"success_url":"https://shop.example/ok","cancel_url":"https://shop.example/cancel"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout/missing", strings.NewReader(body)))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("create without urls", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout/1", strings.NewReader(`{}`)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("return", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout/1/return?hmac_alg=HMAC-SHA256&hmac_keyId=k1&hmac_value=good", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout/1/return?hmac_keyId=k1&hmac_value=bad", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("forged return status = %d, want 400", w.Code)
		}
	})
}

func TestOperationalRoutes(t *testing.T) {
	router := setupRouter(runnerFunc(func(context.Context, string) error { return nil }), &mockCheckout{})
	for _, path := range []string{"/healthz", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, w.Code)
		}
	}
}
