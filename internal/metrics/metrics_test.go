package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Operations(t *testing.T) {
	m := New()

	m.Succeeded("deposit")
	m.Succeeded("deposit")
	m.Rejected("withdraw", "insufficient_balance")

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("deposit", "ok")); got != 2 {
		t.Errorf("expected 2 successful deposits, got %v", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", "rejected")); got != 1 {
		t.Errorf("expected 1 rejected withdraw, got %v", got)
	}
	if got := testutil.ToFloat64(m.Rejections.WithLabelValues("withdraw", "insufficient_balance")); got != 1 {
		t.Errorf("expected 1 insufficient_balance rejection, got %v", got)
	}
}

func TestMetrics_MarketOrder(t *testing.T) {
	m := New()

	m.MarketOrder("BAT", 3, false)
	m.MarketOrder("BAT", 2, true)

	if got := testutil.ToFloat64(m.Trades.WithLabelValues("BAT")); got != 5 {
		t.Errorf("expected 5 trades, got %v", got)
	}
	if got := testutil.ToFloat64(m.Truncations.WithLabelValues("BAT")); got != 1 {
		t.Errorf("expected 1 truncation, got %v", got)
	}
	if n := testutil.CollectAndCount(m.FillsPerOrder); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}

func TestMetrics_Gauges(t *testing.T) {
	m := New()

	m.SetResting("BAT", "BUY", 4)
	m.SetResting("BAT", "BUY", 3)
	m.WebhookDelivered("trade.executed", false)

	if got := testutil.ToFloat64(m.RestingOrders.WithLabelValues("BAT", "BUY")); got != 3 {
		t.Errorf("expected 3 resting orders, got %v", got)
	}
	if got := testutil.ToFloat64(m.Webhooks.WithLabelValues("trade.executed", "failed")); got != 1 {
		t.Errorf("expected 1 failed delivery, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Succeeded("deposit")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `dex_operations_total{op="deposit",result="ok"} 1`) {
		t.Fatalf("expected the operations counter in the exposition, got:\n%s", body)
	}
}
