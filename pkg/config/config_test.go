package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("USER_SERVICE_URL", "http://users.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserService.Timeout() != 2*time.Second {
		t.Fatalf("expected 2s timeout, got %s", cfg.UserService.Timeout())
	}
	if cfg.UserService.MaxAttempts != 1 {
		t.Fatalf("expected retry disabled by default, got %d attempts", cfg.UserService.MaxAttempts)
	}
	if cfg.Mailer.SendMails {
		t.Fatal("mail sending should be off by default")
	}
	if cfg.Store.Driver != DriverMemory {
		t.Fatalf("expected memory store, got %s", cfg.Store.Driver)
	}
	if cfg.HTTP.Addr != ":8443" || cfg.TLS() {
		t.Fatalf("unexpected http config: %+v", cfg.HTTP)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("USER_SERVICE_URL", "http://users.local")
	t.Setenv("USER_SERVICE_TIMEOUT_MS", "150")
	t.Setenv("SEND_MAILS", "true")
	t.Setenv("MAILER_URL", "http://mailer.local")
	t.Setenv("MANAGER_EMAIL", "manager@store.example")
	t.Setenv("ADMIN_EMAIL", "admin@store.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserService.Timeout() != 150*time.Millisecond {
		t.Fatalf("expected 150ms, got %s", cfg.UserService.Timeout())
	}
	if !cfg.Mailer.SendMails || cfg.Mailer.AdminEmail != "admin@store.example" {
		t.Fatalf("unexpected mailer config: %+v", cfg.Mailer)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "user_service:\n  url: http://users.file\n  timeout_ms: 3000\nstore:\n  driver: memory\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	unsetenv(t, "USER_SERVICE_URL")
	unsetenv(t, "USER_SERVICE_TIMEOUT_MS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserService.URL != "http://users.file" || cfg.UserService.Timeout() != 3*time.Second {
		t.Fatalf("unexpected user service config: %+v", cfg.UserService)
	}
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Tracing:     Tracing{Probability: 1},
			Store:       Store{Driver: DriverMemory},
			UserService: UserService{URL: "http://users.local", TimeoutMS: 2000, MaxAttempts: 1},
			Mailer:      Mailer{TimeoutMS: 5000},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing_user_service", mutate: func(c *Config) { c.UserService.URL = "" }, wantErr: true},
		{name: "zero_timeout", mutate: func(c *Config) { c.UserService.TimeoutMS = 0 }, wantErr: true},
		{name: "unknown_driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: true},
		{name: "postgres_without_url", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }, wantErr: true},
		{name: "redis_without_addr", mutate: func(c *Config) { c.Store.Driver = DriverRedis }, wantErr: true},
		{name: "half_tls", mutate: func(c *Config) { c.HTTP.TLSCertFile = "server.crt" }, wantErr: true},
		{name: "mail_without_recipients", mutate: func(c *Config) {
			c.Mailer.SendMails = true
			c.Mailer.URL = "http://mailer.local"
		}, wantErr: true},
		{name: "mail_display_name_address", mutate: func(c *Config) {
			c.Mailer.SendMails = true
			c.Mailer.URL = "http://mailer.local"
			c.Mailer.ManagerEmail = "Store Manager <manager@store.example>"
			c.Mailer.AdminEmail = "admin@store.example"
		}, wantErr: true},
		{name: "mail_complete", mutate: func(c *Config) {
			c.Mailer.SendMails = true
			c.Mailer.URL = "http://mailer.local"
			c.Mailer.ManagerEmail = "manager@store.example"
			c.Mailer.AdminEmail = "admin@store.example"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
