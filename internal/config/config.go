package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Celo mainnet defaults.
const (
	defaultRPCURL   = "https://forno.celo.org"
	defaultChainID  = 42220
	defaultCUSD     = "0x765DE816845861e75A25fCA122bb6898B8B1282a"
	defaultCEUR     = "0xD8763CBa276a3738E6DE85b4b3bF5FDed6D6cA73"
	defaultWCELO    = "0x471EcE3750Da237f93B8E339c536989b8978a438"
	defaultRouter   = "0xE3D8bd6Aed4F159bc8000a9cD47CffDb95F96121"
	defaultPriceURL = "https://api.coingecko.com/api/v3/simple/price"
)

type Config struct {
	AppPort  string
	LogLevel string

	RPCURL  string
	ChainID int64

	LoanRegistryAddress        string
	ApplicationRegistryAddress string
	FundingTokenAddress        string
	StableEURAddress           string
	WrappedNativeAddress       string
	RouterAddress              string

	// empty = read-only
	SignerKey string

	ConfirmationPollMS int
	ListConcurrency    int
	// upper bound for one multi-step sequence, independent of the HTTP request
	SequenceTimeoutSecs int

	PriceFeedURL     string
	PriceRefreshSpec string

	JournalEnabled       bool
	JournalRetentionDays int
	MySQLHost            string
	MySQLPort            string
	MySQLDB              string
	MySQLUser            string
	MySQLPass            string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	NotifyWebhookURL string
	NotifyAccessKey  string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return d
}

func getbool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return d
}

// Load reads the environment, seeded from .env files when present. Variables
// already set in the environment win.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	return &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		RPCURL:  getenv("RPC_URL", defaultRPCURL),
		ChainID: int64(getint("CHAIN_ID", defaultChainID)),

		LoanRegistryAddress:        os.Getenv("LOAN_REGISTRY_ADDRESS"),
		ApplicationRegistryAddress: os.Getenv("APPLICATION_REGISTRY_ADDRESS"),
		FundingTokenAddress:        getenv("FUNDING_TOKEN_ADDRESS", defaultCUSD),
		StableEURAddress:           getenv("STABLE_EUR_ADDRESS", defaultCEUR),
		WrappedNativeAddress:       getenv("WRAPPED_NATIVE_ADDRESS", defaultWCELO),
		RouterAddress:              getenv("ROUTER_ADDRESS", defaultRouter),

		SignerKey: os.Getenv("SIGNER_KEY"),

		ConfirmationPollMS:  getint("CONFIRMATION_POLL_MS", 1000),
		ListConcurrency:     getint("LIST_CONCURRENCY", 8),
		SequenceTimeoutSecs: getint("SEQUENCE_TIMEOUT_SECONDS", 300),

		PriceFeedURL:     getenv("PRICE_FEED_URL", defaultPriceURL),
		PriceRefreshSpec: getenv("PRICE_REFRESH_SPEC", "@every 1m"),

		JournalEnabled:       getbool("JOURNAL_ENABLED", true),
		JournalRetentionDays: getint("JOURNAL_RETENTION_DAYS", 30),
		MySQLHost:            getenv("MYSQL_HOST", "mysql"),
		MySQLPort:            getenv("MYSQL_PORT", "3306"),
		MySQLDB:              getenv("MYSQL_DB", "microlend"),
		MySQLUser:            getenv("MYSQL_USER", "microlend"),
		MySQLPass:            getenv("MYSQL_PASS", "microlend"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		NotifyAccessKey:  os.Getenv("NOTIFY_ACCESS_KEY"),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := net.LookupPort("tcp", c.AppPort); err != nil {
		return fmt.Errorf("invalid APP_PORT %q: %w", c.AppPort, err)
	}
	if c.RPCURL == "" {
		return errors.New("missing RPC_URL")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("invalid CHAIN_ID %d", c.ChainID)
	}
	if c.LoanRegistryAddress == "" || c.ApplicationRegistryAddress == "" {
		return errors.New("missing registry config (LOAN_REGISTRY_ADDRESS/APPLICATION_REGISTRY_ADDRESS)")
	}
	for name, v := range map[string]string{
		"LOAN_REGISTRY_ADDRESS":        c.LoanRegistryAddress,
		"APPLICATION_REGISTRY_ADDRESS": c.ApplicationRegistryAddress,
		"FUNDING_TOKEN_ADDRESS":        c.FundingTokenAddress,
		"STABLE_EUR_ADDRESS":           c.StableEURAddress,
		"WRAPPED_NATIVE_ADDRESS":       c.WrappedNativeAddress,
		"ROUTER_ADDRESS":               c.RouterAddress,
	} {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("invalid %s %q", name, v)
		}
	}
	if c.ConfirmationPollMS <= 0 {
		return fmt.Errorf("invalid CONFIRMATION_POLL_MS %d", c.ConfirmationPollMS)
	}
	if c.SequenceTimeoutSecs <= 0 {
		return fmt.Errorf("invalid SEQUENCE_TIMEOUT_SECONDS %d", c.SequenceTimeoutSecs)
	}
	if c.ListConcurrency <= 0 {
		return fmt.Errorf("invalid LIST_CONCURRENCY %d", c.ListConcurrency)
	}
	if c.JournalEnabled {
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	}
	return nil
}

func (c *Config) ConfirmationPoll() time.Duration {
	return time.Duration(c.ConfirmationPollMS) * time.Millisecond
}

// JournalRetention is zero when pruning is disabled.
func (c *Config) JournalRetention() time.Duration {
	if c.JournalRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.JournalRetentionDays) * 24 * time.Hour
}

func (c *Config) SequenceTimeout() time.Duration {
	return time.Duration(c.SequenceTimeoutSecs) * time.Second
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) Addr(v string) common.Address { return common.HexToAddress(v) }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
