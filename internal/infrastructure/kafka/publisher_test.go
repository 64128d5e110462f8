package publisher

import (
	"encoding/json"
	"testing"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
)

func TestToMessage(t *testing.T) {
	msg, err := toMessage(domain.ReconciliationEvent{
		OrderID:       "1001",
		Type:          domain.EventSettleDispatched,
		PaymentStatus: domain.PaymentStatusSettleInProgress,
		TxID:          "tx-1",
		Job:           domain.SourceOrdersCron,
	})
	if err != nil {
		t.Fatalf("toMessage() error = %v", err)
	}
	if string(msg.Key) != "1001" {
		t.Errorf("key = %q, want order id", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "SETTLE_DISPATCHED" {
		t.Errorf("headers = %v", msg.Headers)
	}

	var decoded domain.ReconciliationEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.EventID == "" || decoded.Timestamp.IsZero() {
		t.Errorf("event id and timestamp must be filled: %+v", decoded)
	}
	if decoded.TxID != "tx-1" || decoded.Job != domain.SourceOrdersCron {
		t.Errorf("decoded = %+v", decoded)
	}
}
