package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/dex/internal/config"
	"github.com/efreitasn/dex/internal/engine"
	"github.com/efreitasn/dex/internal/handler"
	"github.com/efreitasn/dex/internal/ledger"
	"github.com/efreitasn/dex/internal/metrics"
	"github.com/efreitasn/dex/internal/registry"
	"github.com/efreitasn/dex/internal/service"
	"github.com/efreitasn/dex/internal/store"
	"github.com/efreitasn/dex/internal/token"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	custody := cfg.CustodyAddress
	if custody == (common.Address{}) {
		custody = token.DeriveAddress("custody")
	}

	// Optional operation journal.
	var journal *store.Journal
	if cfg.DataDir != "" {
		journal, err = store.OpenJournal(cfg.DataDir, nil)
		if err != nil {
			logger.Error("failed to open journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer journal.Close()
		logger.Info("journal opened", slog.String("dir", cfg.DataDir))
	}

	// Engine.
	m := metrics.New()
	directory := token.NewDirectory()
	exchange := engine.NewExchange(
		registry.New(cfg.QuoteSymbol),
		ledger.New(),
		engine.NewBookManager(),
		store.NewOrderStore(),
		store.NewTradeStore(),
		cfg.MaxMatchSteps,
	)

	// Services. A nil *store.Journal must not reach the Journal interfaces.
	var svcJournal service.Journal
	var journalReader handler.JournalReader
	if journal != nil {
		svcJournal = journal
		journalReader = journal
	}
	webhookSvc := service.NewWebhookService(store.NewWebhookStore(), cfg.WebhookTimeout, m, logger)
	traderSvc := service.NewTraderService(exchange, m, svcJournal, logger)
	orderSvc := service.NewOrderService(exchange, webhookSvc, m, svcJournal, logger)
	tokenSvc := service.NewTokenService(exchange, directory, custody, m, svcJournal, logger)

	if err := bootstrap(cfg, directory, tokenSvc, custody, logger); err != nil {
		logger.Error("bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Router.
	router := handler.NewRouter(handler.Services{
		Traders:  traderSvc,
		Orders:   orderSvc,
		Tokens:   tokenSvc,
		Webhooks: webhookSvc,
		Journal:  journalReader,
		Metrics:  m.Handler(),
	}, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("quote", cfg.QuoteSymbol.String()),
			slog.String("custody", custody.Hex()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, then let pending webhooks finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	webhookSvc.Wait()

	logger.Info("server stopped")
}

// bootstrap deploys every configured token, registers it on the exchange,
// and gives each seed account SeedAmount of it with an allowance for the
// custody account. Deposits stay explicit.
func bootstrap(
	cfg *config.Config,
	directory *token.Directory,
	tokenSvc *service.TokenService,
	custody common.Address,
	logger *slog.Logger,
) error {
	for _, sym := range cfg.Tokens {
		erc := directory.Deploy(sym.String())
		if _, err := tokenSvc.AddToken(service.AddTokenRequest{
			Symbol:  sym.String(),
			Address: erc.Address().Hex(),
		}); err != nil {
			return fmt.Errorf("register %s: %w", sym, err)
		}

		for _, account := range cfg.SeedAccounts {
			if err := erc.Faucet(account, cfg.SeedAmount); err != nil {
				return fmt.Errorf("seed %s for %s: %w", sym, account.Hex(), err)
			}
			erc.Approve(account, custody, cfg.SeedAmount)
		}
	}
	if len(cfg.SeedAccounts) > 0 {
		logger.Info("seed accounts funded",
			slog.Int("accounts", len(cfg.SeedAccounts)),
			slog.String("amount", cfg.SeedAmount.Dec()),
		)
	}
	return nil
}
