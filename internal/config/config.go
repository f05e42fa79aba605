package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"nftloan-backend/internal/domain/loan"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	OwnerAddress   string
	VaultAddress   string
	ProtocolFeeBps uint64
	AllowedAssets  []string
	EventsChannel  string
	LogLevel       string

	// ConfigFile is the optional YAML overlay applied by ApplyFile.
	ConfigFile string
}

// fileOverlay is the YAML document accepted by ApplyFile. Keys left out keep
// their env value.
type fileOverlay struct {
	OwnerAddress   *string  `yaml:"owner_address"`
	VaultAddress   *string  `yaml:"vault_address"`
	ProtocolFeeBps *uint64  `yaml:"protocol_fee_bps"`
	AllowedAssets  []string `yaml:"allowed_assets"`
	EventsChannel  *string  `yaml:"events_channel"`
	LogLevel       *string  `yaml:"log_level"`
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "nftloan"),
		MySQLUser: getenv("MYSQL_USER", "nftloan"),
		MySQLPass: getenv("MYSQL_PASS", "nftloan"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		IdempTTLSecs: 300,

		OwnerAddress:   os.Getenv("OWNER_ADDRESS"),
		VaultAddress:   os.Getenv("VAULT_ADDRESS"),
		ProtocolFeeBps: 200,
		AllowedAssets:  splitList(os.Getenv("ALLOWED_ASSETS")),
		EventsChannel:  getenv("EVENTS_CHANNEL", "nftloan.events"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		ConfigFile:     os.Getenv("CONFIG_FILE"),
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	if v := os.Getenv("PROTOCOL_FEE_BPS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.ProtocolFeeBps = n
		}
	}
	return c
}

// ApplyFile overlays the YAML file at path onto c. Values in the file win
// over the environment.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileOverlay
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if f.OwnerAddress != nil {
		c.OwnerAddress = *f.OwnerAddress
	}
	if f.VaultAddress != nil {
		c.VaultAddress = *f.VaultAddress
	}
	if f.ProtocolFeeBps != nil {
		c.ProtocolFeeBps = *f.ProtocolFeeBps
	}
	if f.AllowedAssets != nil {
		c.AllowedAssets = f.AllowedAssets
	}
	if f.EventsChannel != nil {
		c.EventsChannel = *f.EventsChannel
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	return nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS %d", c.IdempTTLSecs)
	}
	if err := validAccount("OWNER_ADDRESS", c.OwnerAddress); err != nil {
		return err
	}
	if err := validAccount("VAULT_ADDRESS", c.VaultAddress); err != nil {
		return err
	}
	if c.Owner() == c.Vault() {
		return errors.New("OWNER_ADDRESS and VAULT_ADDRESS must differ")
	}
	if c.ProtocolFeeBps > loan.MaxProtocolFeeBps {
		return fmt.Errorf("PROTOCOL_FEE_BPS %d above %d", c.ProtocolFeeBps, loan.MaxProtocolFeeBps)
	}
	for _, a := range c.AllowedAssets {
		if err := validAccount("ALLOWED_ASSETS", a); err != nil {
			return err
		}
	}
	if c.EventsChannel == "" {
		return errors.New("missing EVENTS_CHANNEL")
	}
	return nil
}

func validAccount(key, v string) error {
	if v == "" {
		return fmt.Errorf("missing %s", key)
	}
	if !common.IsHexAddress(v) || common.HexToAddress(v) == (common.Address{}) {
		return fmt.Errorf("invalid %s %q", key, v)
	}
	return nil
}

func (c *Config) Owner() common.Address { return common.HexToAddress(c.OwnerAddress) }

func (c *Config) Vault() common.Address { return common.HexToAddress(c.VaultAddress) }

// Allowed returns the configured allow-list; call after Validate.
func (c *Config) Allowed() []common.Address {
	out := make([]common.Address, 0, len(c.AllowedAssets))
	for _, a := range c.AllowedAssets {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
