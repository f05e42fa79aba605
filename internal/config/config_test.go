package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ownerHex = "0x00000000000000000000000000000000000000aa"
	vaultHex = "0x000000000000000000000000000000000000beef"
	nftHex   = "0x5555555555555555555555555555555555555555"
)

func validConfig() *Config {
	return &Config{
		AppPort:        "8080",
		MySQLHost:      "mysql",
		MySQLPort:      "3306",
		MySQLDB:        "nftloan",
		MySQLUser:      "nftloan",
		IdempTTLSecs:   300,
		OwnerAddress:   ownerHex,
		VaultAddress:   vaultHex,
		ProtocolFeeBps: 200,
		AllowedAssets:  []string{nftHex},
		EventsChannel:  "nftloan.events",
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "MYSQL_DB", "REDIS_DB", "IDEMPOTENCY_TTL_SECONDS", "OWNER_ADDRESS",
		"VAULT_ADDRESS", "PROTOCOL_FEE_BPS", "ALLOWED_ASSETS", "EVENTS_CHANNEL", "LOG_LEVEL", "CONFIG_FILE"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.AppPort != "8080" || c.MySQLDB != "nftloan" || c.IdempTTLSecs != 300 || c.ProtocolFeeBps != 200 {
		t.Fatalf("defaults = %+v", c)
	}
	if c.EventsChannel != "nftloan.events" || c.LogLevel != "info" || len(c.AllowedAssets) != 0 {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("OWNER_ADDRESS", ownerHex)
	t.Setenv("VAULT_ADDRESS", vaultHex)
	t.Setenv("PROTOCOL_FEE_BPS", "150")
	t.Setenv("ALLOWED_ASSETS", " "+nftHex+" ,, 0x6666666666666666666666666666666666666666")
	t.Setenv("CONFIG_FILE", "/etc/nftloan.yaml")

	c := Load()
	if c.RedisDB != 3 || c.IdempTTLSecs != 60 || c.ProtocolFeeBps != 150 || c.ConfigFile != "/etc/nftloan.yaml" {
		t.Fatalf("env = %+v", c)
	}
	if len(c.AllowedAssets) != 2 || c.AllowedAssets[0] != nftHex {
		t.Fatalf("allowed = %v", c.AllowedAssets)
	}
	if c.Owner() != common.HexToAddress(ownerHex) || c.Vault() != common.HexToAddress(vaultHex) {
		t.Fatalf("owner/vault = %s/%s", c.Owner(), c.Vault())
	}
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	t.Setenv("PROTOCOL_FEE_BPS", "-5")
	c := Load()
	if c.RedisDB != 0 || c.ProtocolFeeBps != 200 {
		t.Fatalf("malformed values should keep defaults: %+v", c)
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nftloan.yaml")
	doc := strings.Join([]string{
		"owner_address: " + ownerHex,
		"protocol_fee_bps: 0",
		"allowed_assets:",
		"  - " + nftHex,
		"log_level: debug",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := validConfig()
	c.OwnerAddress = ""
	c.VaultAddress = vaultHex
	c.AllowedAssets = nil
	if err := c.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if c.OwnerAddress != ownerHex || c.ProtocolFeeBps != 0 || c.LogLevel != "debug" {
		t.Fatalf("overlay = %+v", c)
	}
	if c.VaultAddress != vaultHex || c.EventsChannel != "nftloan.events" {
		t.Fatalf("keys absent from file must keep their value: %+v", c)
	}
	if got := c.Allowed(); len(got) != 1 || got[0] != common.HexToAddress(nftHex) {
		t.Fatalf("allowed = %v", got)
	}
}

func TestApplyFile_Errors(t *testing.T) {
	c := validConfig()
	if err := c.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("protocol_fee_bps: [1, 2"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.ApplyFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing mysql host", func(c *Config) { c.MySQLHost = "" }, "missing MySQL config"},
		{"bad mysql port", func(c *Config) { c.MySQLPort = "notaport" }, "invalid MYSQL_PORT"},
		{"missing app port", func(c *Config) { c.AppPort = "" }, "missing APP_PORT"},
		{"zero ttl", func(c *Config) { c.IdempTTLSecs = 0 }, "IDEMPOTENCY_TTL_SECONDS"},
		{"missing owner", func(c *Config) { c.OwnerAddress = "" }, "missing OWNER_ADDRESS"},
		{"bad owner", func(c *Config) { c.OwnerAddress = "0x12" }, "invalid OWNER_ADDRESS"},
		{"zero vault", func(c *Config) { c.VaultAddress = "0x0000000000000000000000000000000000000000" }, "invalid VAULT_ADDRESS"},
		{"owner is vault", func(c *Config) { c.VaultAddress = ownerHex }, "must differ"},
		{"fee too high", func(c *Config) { c.ProtocolFeeBps = 1001 }, "PROTOCOL_FEE_BPS"},
		{"bad asset", func(c *Config) { c.AllowedAssets = []string{"nft"} }, "invalid ALLOWED_ASSETS"},
		{"missing channel", func(c *Config) { c.EventsChannel = "" }, "EVENTS_CHANNEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := validConfig()
	c.MySQLPass = "secret"
	want := "nftloan:secret@tcp(mysql:3306)/nftloan?parseTime=true&charset=utf8mb4,utf8"
	if got := c.MySQLDSN(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
