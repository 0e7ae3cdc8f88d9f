package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/efreitasn/dex/internal/domain"
)

func TestDeposit_Success(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, "BAT", 1000)

	bal, err := env.traders.GetBalance(alice.Hex(), "BAT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.Balance.Uint64() != 1000 {
		t.Errorf("got balance %s, want 1000", bal.Balance.Dec())
	}
	if bal.Available.Uint64() != 1000 {
		t.Errorf("got available %s, want 1000", bal.Available.Dec())
	}
	if got := testutil.ToFloat64(env.metrics.Operations.WithLabelValues("deposit", "ok")); got != 1 {
		t.Errorf("got %v successful deposits, want 1", got)
	}

	kinds := env.journal.Kinds()
	if kinds[len(kinds)-1] != "deposit" {
		t.Errorf("got last journal kind %q, want deposit", kinds[len(kinds)-1])
	}
}

func TestDeposit_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  TransferRequest
		msg  string
	}{
		{
			name: "bad trader",
			req:  TransferRequest{Trader: "alice", Symbol: "BAT", Amount: "1"},
			msg:  "trader must be a 20-byte hex address",
		},
		{
			name: "bad symbol",
			req:  TransferRequest{Trader: alice.Hex(), Symbol: "B@T", Amount: "1"},
			msg:  "symbol must match ^[A-Za-z0-9-]{1,32}$",
		},
		{
			name: "negative amount",
			req:  TransferRequest{Trader: alice.Hex(), Symbol: "BAT", Amount: "-1"},
			msg:  "amount must be a non-negative base-10 integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.traders.Deposit(context.Background(), tt.req)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Message != tt.msg {
				t.Errorf("got message %q, want %q", ve.Message, tt.msg)
			}
		})
	}
	if got := testutil.ToFloat64(env.metrics.Rejections.WithLabelValues("deposit", "validation_error")); got != 3 {
		t.Errorf("got %v rejections, want 3", got)
	}
}

func TestDeposit_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.traders.Deposit(context.Background(), TransferRequest{
		Trader: alice.Hex(),
		Symbol: "ZRX",
		Amount: "100",
	})
	if !errors.Is(err, domain.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if err.Error() != "This token doesnt exist" {
		t.Errorf("got message %q", err.Error())
	}
}

func TestDeposit_WithoutAllowance(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.traders.Deposit(context.Background(), TransferRequest{
		Trader: alice.Hex(),
		Symbol: "BAT",
		Amount: "100",
	})
	if err == nil {
		t.Fatal("expected error for deposit without allowance")
	}
	if code := domain.Code(err); code != "token_transfer_failed" {
		t.Errorf("got code %q, want token_transfer_failed", code)
	}

	bal, _ := env.traders.GetBalance(alice.Hex(), "BAT")
	if !bal.Balance.IsZero() {
		t.Errorf("got balance %s after failed deposit, want 0", bal.Balance.Dec())
	}
}

func TestWithdraw_Success(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, "BAT", 1000)

	bal, err := env.traders.Withdraw(context.Background(), TransferRequest{
		Trader: alice.Hex(),
		Symbol: "BAT",
		Amount: "400",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.Balance.Uint64() != 600 {
		t.Errorf("got balance %s, want 600", bal.Balance.Dec())
	}
	if got := env.directory.Deploy("BAT").BalanceOf(alice); got.Uint64() != 400 {
		t.Errorf("got wallet balance %s, want 400", got.Dec())
	}
}

func TestWithdraw_LockedFundsAreNotAvailable(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, "DAI", 1000)
	env.limit(t, alice, "BAT", "BUY", "10", "80")

	_, err := env.traders.Withdraw(context.Background(), TransferRequest{
		Trader: alice.Hex(),
		Symbol: "DAI",
		Amount: "300",
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	bal, _ := env.traders.GetBalance(alice.Hex(), "DAI")
	if bal.Locked.Uint64() != 800 || bal.Available.Uint64() != 200 {
		t.Errorf("got locked=%s available=%s, want 800/200", bal.Locked.Dec(), bal.Available.Dec())
	}
}

func TestGetBalance_NeverHeld(t *testing.T) {
	env := newTestEnv(t)

	bal, err := env.traders.GetBalance(bob.Hex(), "REP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bal.Balance.IsZero() || !bal.Locked.IsZero() || !bal.Available.IsZero() {
		t.Errorf("expected zero balance, got %+v", bal)
	}
}

func TestRecorder_FailedAppendDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	env.journal.fail = true

	env.fund(t, alice, "BAT", 10)

	bal, _ := env.traders.GetBalance(alice.Hex(), "BAT")
	if bal.Balance.Uint64() != 10 {
		t.Errorf("got balance %s, want 10", bal.Balance.Dec())
	}
}
