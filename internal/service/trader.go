package service

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/engine"
	"github.com/efreitasn/dex/internal/metrics"
)

// TransferRequest represents the input for a deposit or a withdrawal.
type TransferRequest struct {
	Trader string
	Symbol string
	Amount string
}

// BalanceResponse represents one trader's position in one token.
type BalanceResponse struct {
	Trader    common.Address
	Symbol    domain.Symbol
	Balance   uint256.Int
	Locked    uint256.Int
	Available uint256.Int
}

// transferEntry is the journal record of a deposit or withdrawal.
type transferEntry struct {
	Trader string `json:"trader"`
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

// TraderService handles deposits, withdrawals and balance queries.
type TraderService struct {
	exchange *engine.Exchange
	metrics  *metrics.Metrics
	recorder recorder
	logger   *slog.Logger
}

// NewTraderService creates a new TraderService. journal may be nil.
func NewTraderService(ex *engine.Exchange, m *metrics.Metrics, journal Journal, logger *slog.Logger) *TraderService {
	return &TraderService{
		exchange: ex,
		metrics:  m,
		recorder: recorder{journal: journal, logger: logger},
		logger:   logger,
	}
}

// parseTrader validates a hex address.
func parseTrader(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, &domain.ValidationError{
			Message: "trader must be a 20-byte hex address",
		}
	}
	return common.HexToAddress(s), nil
}

func parseTransfer(req TransferRequest) (common.Address, domain.Symbol, *uint256.Int, error) {
	trader, err := parseTrader(req.Trader)
	if err != nil {
		return common.Address{}, "", nil, err
	}
	symbol, err := domain.ParseSymbol(req.Symbol)
	if err != nil {
		return common.Address{}, "", nil, err
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return common.Address{}, "", nil, err
	}
	return trader, symbol, amount, nil
}

// Deposit pulls tokens from the trader into custody and credits them.
func (s *TraderService) Deposit(ctx context.Context, req TransferRequest) (*BalanceResponse, error) {
	return s.transfer(ctx, "deposit", req, s.exchange.Deposit)
}

// Withdraw debits the trader and returns the tokens from custody.
func (s *TraderService) Withdraw(ctx context.Context, req TransferRequest) (*BalanceResponse, error) {
	return s.transfer(ctx, "withdraw", req, s.exchange.Withdraw)
}

type transferFunc func(context.Context, common.Address, domain.Symbol, *uint256.Int) (domain.Holding, error)

func (s *TraderService) transfer(ctx context.Context, op string, req TransferRequest, fn transferFunc) (*BalanceResponse, error) {
	trader, symbol, amount, err := parseTransfer(req)
	if err != nil {
		s.metrics.Rejected(op, domain.Code(err))
		return nil, err
	}

	h, err := fn(ctx, trader, symbol, amount)
	if err != nil {
		s.metrics.Rejected(op, domain.Code(err))
		s.logger.Info(op+" rejected",
			slog.String("trader", trader.Hex()),
			slog.String("symbol", symbol.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.metrics.Succeeded(op)
	s.recorder.record(op, transferEntry{
		Trader: trader.Hex(),
		Symbol: symbol.String(),
		Amount: amount.Dec(),
	})
	s.logger.Debug(op+" committed",
		slog.String("trader", trader.Hex()),
		slog.String("symbol", symbol.String()),
		slog.String("amount", amount.Dec()),
	)
	return balanceResponse(trader, symbol, h), nil
}

// GetBalance returns the trader's balance, locked and available amounts.
// Tokens the trader never held report zeros.
func (s *TraderService) GetBalance(traderHex, symbolStr string) (*BalanceResponse, error) {
	trader, err := parseTrader(traderHex)
	if err != nil {
		return nil, err
	}
	symbol, err := domain.ParseSymbol(symbolStr)
	if err != nil {
		return nil, err
	}
	return balanceResponse(trader, symbol, s.exchange.Holding(trader, symbol)), nil
}

func balanceResponse(trader common.Address, symbol domain.Symbol, h domain.Holding) *BalanceResponse {
	return &BalanceResponse{
		Trader:    trader,
		Symbol:    symbol,
		Balance:   h.Balance,
		Locked:    h.Locked,
		Available: *h.Available(),
	}
}
