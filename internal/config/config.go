package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"

	"github.com/efreitasn/dex/internal/domain"
)

// Config holds all runtime configuration for the exchange node.
type Config struct {
	Port     int
	LogLevel string

	QuoteSymbol    domain.Symbol
	Tokens         []domain.Symbol  // deployed and registered at startup, quote included
	CustodyAddress common.Address   // zero means derive one
	SeedAccounts   []common.Address // receive SeedAmount of every token at startup
	SeedAmount     *uint256.Int
	MaxMatchSteps  int    // zero means unbounded
	DataDir        string // journal location, empty disables it

	WebhookTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. Variables already set in the environment take
// precedence over the .env file named by ENV_FILE (or ./.env when unset).
func Load() (*Config, error) {
	if err := loadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d, must be between 1 and 65535", port)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	quote, err := domain.ParseSymbol(getStr("QUOTE_SYMBOL", "DAI"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_SYMBOL: %w", err)
	}

	tokens, err := getSymbols("TOKENS", "DAI,BAT,REP,ZRX")
	if err != nil {
		return nil, fmt.Errorf("invalid TOKENS: %w", err)
	}
	if !containsSymbol(tokens, quote) {
		return nil, fmt.Errorf("invalid TOKENS: must include the quote symbol %s", quote)
	}

	var custody common.Address
	if v := os.Getenv("CUSTODY_ADDRESS"); v != "" {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("invalid CUSTODY_ADDRESS: %q is not a hex address", v)
		}
		custody = common.HexToAddress(v)
	}

	seedAccounts, err := getAddresses("SEED_ACCOUNTS")
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_ACCOUNTS: %w", err)
	}

	seedAmount, err := domain.ParseAmount(getStr("SEED_AMOUNT", "1000000000000000000000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_AMOUNT: %w", err)
	}

	maxMatchSteps, err := getInt("MAX_MATCH_STEPS", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_MATCH_STEPS: %w", err)
	}
	if maxMatchSteps < 0 {
		return nil, fmt.Errorf("invalid MAX_MATCH_STEPS: %d, must be >= 0", maxMatchSteps)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		QuoteSymbol:     quote,
		Tokens:          tokens,
		CustodyAddress:  custody,
		SeedAccounts:    seedAccounts,
		SeedAmount:      seedAmount,
		MaxMatchSteps:   maxMatchSteps,
		DataDir:         os.Getenv("DATA_DIR"),
		WebhookTimeout:  webhookTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing ./.env is not an error; a missing
// explicit ENV_FILE is.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load ENV_FILE %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", v)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getSymbols(key, defaultVal string) ([]domain.Symbol, error) {
	parts := splitList(getStr(key, defaultVal))
	if len(parts) == 0 {
		return nil, errors.New("at least one symbol is required")
	}
	out := make([]domain.Symbol, 0, len(parts))
	for _, p := range parts {
		sym, err := domain.ParseSymbol(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		if containsSymbol(out, sym) {
			return nil, fmt.Errorf("duplicate symbol %s", sym)
		}
		out = append(out, sym)
	}
	return out, nil
}

func getAddresses(key string) ([]common.Address, error) {
	parts := splitList(os.Getenv(key))
	out := make([]common.Address, 0, len(parts))
	for _, p := range parts {
		if !common.IsHexAddress(p) {
			return nil, fmt.Errorf("%q is not a hex address", p)
		}
		out = append(out, common.HexToAddress(p))
	}
	return out, nil
}

func containsSymbol(list []domain.Symbol, s domain.Symbol) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
