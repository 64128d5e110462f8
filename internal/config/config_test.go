package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		path := writeConfig(t, `
recon_db:
  driver: mysql
  dsn: user:pass@tcp(localhost:3306)/bleumipay
cron:
  max_retry_count: 5
  orders_interval: 2m
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ReconDB.Driver != "mysql" {
			t.Errorf("driver = %q, want mysql", cfg.ReconDB.Driver)
		}
		if cfg.Cron.MaxRetryCount != 5 {
			t.Errorf("max_retry_count = %d, want 5", cfg.Cron.MaxRetryCount)
		}
		if cfg.Cron.OrdersInterval != 2*time.Minute {
			t.Errorf("orders_interval = %v, want 2m", cfg.Cron.OrdersInterval)
		}
		if cfg.Cron.CollisionSafeWindow != 10*time.Minute {
			t.Errorf("collision_safe_window = %v, want 10m", cfg.Cron.CollisionSafeWindow)
		}
		if cfg.Cron.RateLimitDelay != 300*time.Millisecond {
			t.Errorf("rate_limit_delay = %v, want 300ms", cfg.Cron.RateLimitDelay)
		}
		if cfg.Cron.AwaitPaymentTimeout != 24*time.Hour {
			t.Errorf("await_payment_timeout = %v, want 24h", cfg.Cron.AwaitPaymentTimeout)
		}
		if cfg.BleumiPay.BaseURL != "https://api.bleumi.io/v1" {
			t.Errorf("base_url = %q", cfg.BleumiPay.BaseURL)
		}
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		path := writeConfig(t, `
recon_db:
  driver: oracle
`)
		if _, err := Load(path); err == nil {
			t.Fatal("Load() expected error for unsupported driver")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("Load() expected error for missing file")
		}
	})
}
