package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/engine"
	"github.com/efreitasn/dex/internal/metrics"
	"github.com/efreitasn/dex/internal/registry"
	"github.com/efreitasn/dex/internal/token"
)

// AddTokenRequest represents the input for token registration.
type AddTokenRequest struct {
	Symbol  string
	Address string
}

// DepthResponse represents aggregated book depth for a symbol.
type DepthResponse struct {
	Symbol     domain.Symbol
	Bids       []engine.PriceLevel
	Asks       []engine.PriceLevel
	Spread     *uint256.Int // nil if either side empty
	Crossed    bool         // best bid above best ask; Spread is then bid - ask
	SnapshotAt time.Time
}

// QuoteResponse represents a market order simulation.
type QuoteResponse struct {
	Symbol          domain.Symbol
	Side            domain.Side
	AmountRequested uint256.Int
	engine.QuoteResult
	QuotedAt time.Time
}

// tokenEntry is the journal record of a token registration.
type tokenEntry struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

// TokenService handles token registration and book queries.
type TokenService struct {
	exchange  *engine.Exchange
	directory *token.Directory
	custody   common.Address
	metrics   *metrics.Metrics
	recorder  recorder
	logger    *slog.Logger
}

// NewTokenService creates a new TokenService. Registered tokens move
// through the custody account. journal may be nil.
func NewTokenService(
	ex *engine.Exchange,
	directory *token.Directory,
	custody common.Address,
	m *metrics.Metrics,
	journal Journal,
	logger *slog.Logger,
) *TokenService {
	return &TokenService{
		exchange:  ex,
		directory: directory,
		custody:   custody,
		metrics:   m,
		recorder:  recorder{journal: journal, logger: logger},
		logger:    logger,
	}
}

// AddToken registers the token deployed at the given address under symbol.
func (s *TokenService) AddToken(req AddTokenRequest) (registry.Entry, error) {
	entry, err := s.addToken(req)
	if err != nil {
		s.metrics.Rejected("add_token", domain.Code(err))
		s.logger.Info("add token rejected",
			slog.String("symbol", req.Symbol),
			slog.String("address", req.Address),
			slog.String("error", err.Error()),
		)
		return registry.Entry{}, err
	}
	s.metrics.Succeeded("add_token")
	s.recorder.record("add_token", tokenEntry{
		Symbol:  entry.Symbol.String(),
		Address: entry.Address.Hex(),
	})
	s.logger.Info("token registered",
		slog.String("symbol", entry.Symbol.String()),
		slog.String("address", entry.Address.Hex()),
	)
	return entry, nil
}

func (s *TokenService) addToken(req AddTokenRequest) (registry.Entry, error) {
	symbol, err := domain.ParseSymbol(req.Symbol)
	if err != nil {
		return registry.Entry{}, err
	}
	if !common.IsHexAddress(req.Address) {
		return registry.Entry{}, &domain.ValidationError{
			Message: "address must be a 20-byte hex address",
		}
	}
	erc, err := s.directory.Get(common.HexToAddress(req.Address))
	if err != nil {
		return registry.Entry{}, err
	}
	return s.exchange.AddToken(symbol, erc.Address(), erc.Custody(s.custody))
}

// List returns the registered tokens in registration order.
func (s *TokenService) List() []registry.Entry {
	return s.exchange.Tokens()
}

// GetDepth returns the top levels of a symbol's book on both sides.
func (s *TokenService) GetDepth(symbolStr string, levels int) (*DepthResponse, error) {
	symbol, err := domain.ParseSymbol(symbolStr)
	if err != nil {
		return nil, err
	}
	if levels < 1 || levels > 50 {
		return nil, &domain.ValidationError{
			Message: "levels must be between 1 and 50",
		}
	}

	bids, asks, err := s.exchange.Depth(symbol, levels)
	if err != nil {
		return nil, err
	}

	resp := &DepthResponse{
		Symbol:     symbol,
		Bids:       bids,
		Asks:       asks,
		SnapshotAt: time.Now(),
	}
	if len(bids) > 0 && len(asks) > 0 {
		bid, ask := &bids[0].Price, &asks[0].Price
		if ask.Lt(bid) {
			resp.Crossed = true
			resp.Spread = new(uint256.Int).Sub(bid, ask)
		} else {
			resp.Spread = new(uint256.Int).Sub(ask, bid)
		}
	}
	return resp, nil
}

// GetQuote simulates a market order against the current book without
// placing it.
func (s *TokenService) GetQuote(symbolStr, sideStr, amountStr string) (*QuoteResponse, error) {
	symbol, err := domain.ParseSymbol(symbolStr)
	if err != nil {
		return nil, err
	}
	side, err := domain.ParseSide(sideStr)
	if err != nil {
		return nil, err
	}
	amount, err := parseDecimal("amount", amountStr)
	if err != nil {
		return nil, err
	}

	result, err := s.exchange.Quote(symbol, side, amount)
	if err != nil {
		return nil, err
	}
	return &QuoteResponse{
		Symbol:          symbol,
		Side:            side,
		AmountRequested: *amount,
		QuoteResult:     *result,
		QuotedAt:        time.Now(),
	}, nil
}

// GetTrades returns up to limit of the most recent trades on symbol.
func (s *TokenService) GetTrades(symbolStr string, limit int) ([]domain.Trade, error) {
	symbol, err := domain.ParseSymbol(symbolStr)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 1000 {
		return nil, &domain.ValidationError{
			Message: "limit must be between 1 and 1000",
		}
	}
	return s.exchange.Trades(symbol, limit)
}

// Reserves compares the ledger with the custody account for every token.
func (s *TokenService) Reserves(ctx context.Context) ([]engine.Reserve, error) {
	return s.exchange.Reserves(ctx, s.custody)
}
