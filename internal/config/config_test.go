package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/dex/internal/domain"
)

var allEnvKeys = []string{
	"PORT", "LOG_LEVEL", "QUOTE_SYMBOL", "TOKENS", "CUSTODY_ADDRESS",
	"SEED_ACCOUNTS", "SEED_AMOUNT", "MAX_MATCH_STEPS", "DATA_DIR",
	"WEBHOOK_TIMEOUT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
	"SHUTDOWN_TIMEOUT", "ENV_FILE",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.QuoteSymbol != "DAI" {
		t.Errorf("QuoteSymbol = %q, want DAI", cfg.QuoteSymbol)
	}
	want := []domain.Symbol{"DAI", "BAT", "REP", "ZRX"}
	if len(cfg.Tokens) != len(want) {
		t.Fatalf("Tokens = %v, want %v", cfg.Tokens, want)
	}
	for i := range want {
		if cfg.Tokens[i] != want[i] {
			t.Errorf("Tokens[%d] = %s, want %s", i, cfg.Tokens[i], want[i])
		}
	}
	if cfg.CustodyAddress != (common.Address{}) {
		t.Errorf("CustodyAddress = %s, want zero", cfg.CustodyAddress.Hex())
	}
	if len(cfg.SeedAccounts) != 0 {
		t.Errorf("SeedAccounts = %v, want none", cfg.SeedAccounts)
	}
	if cfg.SeedAmount.Dec() != "1000000000000000000000" {
		t.Errorf("SeedAmount = %s, want 1000e18", cfg.SeedAmount.Dec())
	}
	if cfg.MaxMatchSteps != 1000 {
		t.Errorf("MaxMatchSteps = %d, want 1000", cfg.MaxMatchSteps)
	}
	if cfg.DataDir != "" {
		t.Errorf("DataDir = %q, want empty", cfg.DataDir)
	}
	if cfg.WebhookTimeout != 5*time.Second {
		t.Errorf("WebhookTimeout = %v, want 5s", cfg.WebhookTimeout)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want 60s", cfg.IdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("QUOTE_SYMBOL", "USDC")
	t.Setenv("TOKENS", "USDC, WETH ,")
	t.Setenv("CUSTODY_ADDRESS", "0x00000000000000000000000000000000000000c0")
	t.Setenv("SEED_ACCOUNTS", "0x0000000000000000000000000000000000000001,0x0000000000000000000000000000000000000002")
	t.Setenv("SEED_AMOUNT", "42")
	t.Setenv("MAX_MATCH_STEPS", "0")
	t.Setenv("DATA_DIR", "/var/lib/dex")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 || cfg.LogLevel != "debug" {
		t.Errorf("Port/LogLevel = %d/%q", cfg.Port, cfg.LogLevel)
	}
	if cfg.QuoteSymbol != "USDC" || len(cfg.Tokens) != 2 || cfg.Tokens[1] != "WETH" {
		t.Errorf("QuoteSymbol=%s Tokens=%v", cfg.QuoteSymbol, cfg.Tokens)
	}
	if cfg.CustodyAddress != common.HexToAddress("0xc0") {
		t.Errorf("CustodyAddress = %s", cfg.CustodyAddress.Hex())
	}
	if len(cfg.SeedAccounts) != 2 || cfg.SeedAccounts[1] != common.HexToAddress("0x02") {
		t.Errorf("SeedAccounts = %v", cfg.SeedAccounts)
	}
	if cfg.SeedAmount.Uint64() != 42 {
		t.Errorf("SeedAmount = %s, want 42", cfg.SeedAmount.Dec())
	}
	if cfg.MaxMatchSteps != 0 {
		t.Errorf("MaxMatchSteps = %d, want 0", cfg.MaxMatchSteps)
	}
	if cfg.DataDir != "/var/lib/dex" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.WebhookTimeout != 3*time.Second {
		t.Errorf("WebhookTimeout = %v, want 3s", cfg.WebhookTimeout)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "not-a-number"},
		{"PORT", "70000"},
		{"LOG_LEVEL", "verbose"},
		{"QUOTE_SYMBOL", "D@I"},
		{"TOKENS", "BAT,REP"},
		{"TOKENS", "DAI,BAT,BAT"},
		{"TOKENS", " , "},
		{"CUSTODY_ADDRESS", "custody"},
		{"SEED_ACCOUNTS", "0x01,alice"},
		{"SEED_AMOUNT", "-5"},
		{"MAX_MATCH_STEPS", "-1"},
		{"WEBHOOK_TIMEOUT", "not-a-duration"},
		{"READ_TIMEOUT", "0s"},
		{"WRITE_TIMEOUT", "-1s"},
		{"IDLE_TIMEOUT", "forever"},
		{"SHUTDOWN_TIMEOUT", "10"},
		{"ENV_FILE", "/nonexistent/dex.env"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "dex.env")
	content := "PORT=7000\nLOG_LEVEL=warn\nMAX_MATCH_STEPS=25\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want 7000 from file", cfg.Port)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want environment to win over file", cfg.LogLevel)
	}
	if cfg.MaxMatchSteps != 25 {
		t.Errorf("MaxMatchSteps = %d, want 25", cfg.MaxMatchSteps)
	}
}
