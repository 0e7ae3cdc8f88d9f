package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/engine"
	"github.com/efreitasn/dex/internal/ledger"
	"github.com/efreitasn/dex/internal/metrics"
	"github.com/efreitasn/dex/internal/registry"
	"github.com/efreitasn/dex/internal/store"
	"github.com/efreitasn/dex/internal/token"
)

var (
	alice   = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob     = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
	custody = token.DeriveAddress("custody")
)

// memJournal records appended entries in memory.
type memJournal struct {
	mu      sync.Mutex
	kinds   []string
	entries []any
	fail    bool
}

func (j *memJournal) Append(kind string, data any) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail {
		return 0, errors.New("disk full")
	}
	j.kinds = append(j.kinds, kind)
	j.entries = append(j.entries, data)
	return uint64(len(j.kinds)), nil
}

func (j *memJournal) Kinds() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.kinds...)
}

// testEnv bundles all dependencies needed for service tests.
type testEnv struct {
	directory *token.Directory
	exchange  *engine.Exchange
	metrics   *metrics.Metrics
	journal   *memJournal
	webhooks  *store.WebhookStore

	traders    *TraderService
	orders     *OrderService
	tokens     *TokenService
	webhookSvc *WebhookService
}

// newTestEnv deploys DAI, BAT and REP and registers them with DAI as quote.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		directory: token.NewDirectory(),
		metrics:   metrics.New(),
		journal:   &memJournal{},
		webhooks:  store.NewWebhookStore(),
	}
	env.exchange = engine.NewExchange(
		registry.New("DAI"),
		ledger.New(),
		engine.NewBookManager(),
		store.NewOrderStore(),
		store.NewTradeStore(),
		0,
	)
	env.webhookSvc = NewWebhookService(env.webhooks, 5*time.Second, env.metrics, logger)
	env.traders = NewTraderService(env.exchange, env.metrics, env.journal, logger)
	env.orders = NewOrderService(env.exchange, env.webhookSvc, env.metrics, env.journal, logger)
	env.tokens = NewTokenService(env.exchange, env.directory, custody, env.metrics, env.journal, logger)

	for _, sym := range []string{"DAI", "BAT", "REP"} {
		erc := env.directory.Deploy(sym)
		if _, err := env.tokens.AddToken(AddTokenRequest{Symbol: sym, Address: erc.Address().Hex()}); err != nil {
			t.Fatalf("add token %s: %v", sym, err)
		}
	}
	return env
}

// fund mints amount of symbol for trader and deposits it.
func (env *testEnv) fund(t *testing.T, trader common.Address, symbol string, amount uint64) {
	t.Helper()
	erc := env.directory.Deploy(symbol)
	if err := erc.Faucet(trader, uint256.NewInt(amount)); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	erc.Approve(trader, custody, uint256.NewInt(amount))
	_, err := env.traders.Deposit(context.Background(), TransferRequest{
		Trader: trader.Hex(),
		Symbol: symbol,
		Amount: uint256.NewInt(amount).Dec(),
	})
	if err != nil {
		t.Fatalf("deposit %d %s: %v", amount, symbol, err)
	}
}

func strPtr(s string) *string {
	return &s
}

// limit places a limit order and fails the test on error.
func (env *testEnv) limit(t *testing.T, trader common.Address, symbol, side, amount, price string) *SubmitOrderResult {
	t.Helper()
	res, err := env.orders.SubmitOrder(SubmitOrderRequest{
		Type:   "limit",
		Trader: trader.Hex(),
		Symbol: symbol,
		Side:   side,
		Amount: amount,
		Price:  strPtr(price),
	})
	if err != nil {
		t.Fatalf("limit %s %s@%s: %v", side, amount, price, err)
	}
	return res
}
