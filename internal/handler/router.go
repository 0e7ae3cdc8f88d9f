package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/dex/internal/service"
)

// Services bundles the services the router exposes. Journal and Metrics
// are optional; their routes are only registered when set.
type Services struct {
	Traders  *service.TraderService
	Orders   *service.OrderService
	Tokens   *service.TokenService
	Webhooks *service.WebhookService
	Journal  JournalReader
	Metrics  http.Handler
}

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(svc Services, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	traderH := NewTraderHandler(svc.Traders, svc.Orders)
	orderH := NewOrderHandler(svc.Orders)
	bookH := NewBookHandler(svc.Orders, svc.Tokens)
	tokenH := NewTokenHandler(svc.Tokens)
	webhookH := NewWebhookHandler(svc.Webhooks)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if svc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", svc.Metrics)
	}

	// Token routes.
	r.Post("/tokens", tokenH.AddToken)
	r.Get("/tokens", tokenH.List)
	r.Get("/reserves", tokenH.Reserves)

	// Trader routes.
	r.Post("/deposits", traderH.Deposit)
	r.Post("/withdrawals", traderH.Withdraw)
	r.Get("/traders/{trader}/balances/{symbol}", traderH.GetBalance)
	r.Get("/traders/{trader}/orders", traderH.ListOrders)

	// Order routes.
	r.Post("/orders", orderH.SubmitOrder)
	r.Get("/orders/{order_id}", orderH.GetOrder)

	// Book routes.
	r.Get("/books/{symbol}/orders", bookH.GetOrders)
	r.Get("/books/{symbol}/depth", bookH.GetDepth)
	r.Get("/books/{symbol}/quote", bookH.GetQuote)
	r.Get("/books/{symbol}/trades", bookH.GetTrades)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	if svc.Journal != nil {
		r.Get("/journal", NewJournalHandler(svc.Journal, logger).List)
	}

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
