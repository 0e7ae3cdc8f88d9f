package config

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// validLogLevels are the accepted log level values.
var validLogLevels = []string{"debug", "info", "warn", "error"}

// durationDefaults maps every duration variable to its default.
var durationDefaults = map[string]time.Duration{
	"WEBHOOK_TIMEOUT":  5 * time.Second,
	"READ_TIMEOUT":     5 * time.Second,
	"WRITE_TIMEOUT":    10 * time.Second,
	"IDLE_TIMEOUT":     60 * time.Second,
	"SHUTDOWN_TIMEOUT": 10 * time.Second,
}

// unsetAllConfigEnv clears all config env vars.
func unsetAllConfigEnv() {
	for _, key := range allEnvKeys {
		os.Unsetenv(key)
	}
}

// genDurationString generates a valid Go duration string (e.g. "3s", "500ms", "2m").
func genDurationString() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		unit := rapid.SampledFrom([]string{"ms", "s", "m"}).Draw(t, "unit")
		val := rapid.IntRange(1, 600).Draw(t, "val")
		return fmt.Sprintf("%d%s", val, unit)
	})
}

func durationOf(cfg *Config, key string) time.Duration {
	switch key {
	case "WEBHOOK_TIMEOUT":
		return cfg.WebhookTimeout
	case "READ_TIMEOUT":
		return cfg.ReadTimeout
	case "WRITE_TIMEOUT":
		return cfg.WriteTimeout
	case "IDLE_TIMEOUT":
		return cfg.IdleTimeout
	}
	return cfg.ShutdownTimeout
}

func TestProperty_ValidConfigParsing(t *testing.T) {
	clearEnv(t)
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		port := rapid.IntRange(1, 65535).Draw(t, "port")
		logLevel := rapid.SampledFrom(validLogLevels).Draw(t, "logLevel")
		steps := rapid.IntRange(0, 1_000_000).Draw(t, "steps")
		bases := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Z]{3,5}`), 0, 5, rapid.ID[string]).
			Filter(func(s []string) bool {
				for _, v := range s {
					if v == "DAI" {
						return false
					}
				}
				return true
			}).Draw(t, "bases")

		os.Setenv("PORT", fmt.Sprint(port))
		os.Setenv("LOG_LEVEL", logLevel)
		os.Setenv("MAX_MATCH_STEPS", fmt.Sprint(steps))
		os.Setenv("TOKENS", strings.Join(append([]string{"DAI"}, bases...), ","))

		durs := make(map[string]string, len(durationDefaults))
		for key := range durationDefaults {
			durs[key] = rapid.OneOf(rapid.Just(""), genDurationString()).Draw(t, key)
			if durs[key] != "" {
				os.Setenv(key, durs[key])
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned error for valid inputs: %v", err)
		}
		if cfg.Port != port || cfg.LogLevel != logLevel || cfg.MaxMatchSteps != steps {
			t.Fatalf("got port=%d level=%q steps=%d", cfg.Port, cfg.LogLevel, cfg.MaxMatchSteps)
		}
		if len(cfg.Tokens) != len(bases)+1 {
			t.Fatalf("got %d tokens, want %d", len(cfg.Tokens), len(bases)+1)
		}
		for key, def := range durationDefaults {
			want := def
			if durs[key] != "" {
				want, _ = time.ParseDuration(durs[key])
			}
			if got := durationOf(cfg, key); got != want {
				t.Fatalf("%s = %v, want %v (env=%q)", key, got, want, durs[key])
			}
		}
	})
}

func TestProperty_InvalidPortReturnsError(t *testing.T) {
	clearEnv(t)
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		invalidPort := rapid.OneOf(
			rapid.StringMatching(`[a-zA-Z]{1,10}`),
			rapid.Just("12.5"),
			rapid.Map(rapid.IntRange(65536, 1<<30), func(v int) string { return fmt.Sprint(v) }),
			rapid.Map(rapid.IntRange(-1000, 0), func(v int) string { return fmt.Sprint(v) }),
		).Draw(t, "invalidPort")

		os.Setenv("PORT", invalidPort)

		if _, err := Load(); err == nil {
			t.Fatalf("Load() should return error for invalid PORT %q", invalidPort)
		}
	})
}

func TestProperty_InvalidLogLevelReturnsError(t *testing.T) {
	clearEnv(t)
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		invalidLevel := rapid.StringMatching(`[a-z]{1,20}`).Filter(func(s string) bool {
			for _, v := range validLogLevels {
				if s == v {
					return false
				}
			}
			return true
		}).Draw(t, "invalidLevel")

		os.Setenv("LOG_LEVEL", invalidLevel)

		if _, err := Load(); err == nil {
			t.Fatalf("Load() should return error for invalid LOG_LEVEL %q", invalidLevel)
		}
	})
}
