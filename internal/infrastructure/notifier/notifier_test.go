package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
)

func TestCallbackNotifier(t *testing.T) {
	var got []CallbackPayload
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p CallbackPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode callback: %v", err)
		}
		got = append(got, p)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	n := NewCallbackNotifier(srv.URL, nil, time.Second)
	ctx := context.Background()

	if err := n.Publish(ctx, domain.ReconciliationEvent{OrderID: "1", Type: domain.EventSettleDispatched}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("dispatch event was posted: %+v", got)
	}

	err := n.Publish(ctx, domain.ReconciliationEvent{OrderID: "1", Type: domain.EventSettled, PaymentStatus: domain.PaymentStatusSettled, TxID: "tx-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Event != "SETTLED" || got[0].TxID != "tx-1" {
		t.Fatalf("callbacks = %+v", got)
	}

	status = http.StatusInternalServerError
	if err := n.Publish(ctx, domain.ReconciliationEvent{OrderID: "2", Type: domain.EventHardError}); err == nil {
		t.Error("failed callback returned no error")
	}
}

func TestCallbackNotifierCustomTypes(t *testing.T) {
	n := NewCallbackNotifier("http://unused", []string{"ORDER_FAILED"}, time.Second)
	if !n.types[domain.EventOrderFailed] || n.types[domain.EventSettled] {
		t.Errorf("types = %v", n.types)
	}
}
