package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	loanReg = "0x00000000000000000000000000000000000000a1"
	appReg  = "0x00000000000000000000000000000000000000a2"
)

func setRegistries(t *testing.T) {
	t.Helper()
	t.Setenv("LOAN_REGISTRY_ADDRESS", loanReg)
	t.Setenv("APPLICATION_REGISTRY_ADDRESS", appReg)
}

func TestLoad_Defaults(t *testing.T) {
	setRegistries(t)
	c := Load(filepath.Join(t.TempDir(), "missing.env"))

	if c.AppPort != "8080" || c.ChainID != 42220 || c.RPCURL != defaultRPCURL {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.FundingTokenAddress != defaultCUSD || c.RouterAddress != defaultRouter {
		t.Fatalf("token defaults not applied: %+v", c)
	}
	if !c.JournalEnabled || c.IdempotencyTTL() != 5*time.Minute || c.ConfirmationPoll() != time.Second {
		t.Fatalf("unexpected derived values: %+v", c)
	}
	if c.SequenceTimeout() != 5*time.Minute {
		t.Fatalf("sequence timeout = %v", c.SequenceTimeout())
	}
	if c.JournalRetention() != 30*24*time.Hour {
		t.Fatalf("journal retention = %v", c.JournalRetention())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRegistries(t)
	t.Setenv("CHAIN_ID", "44787")
	t.Setenv("LIST_CONCURRENCY", "3")
	t.Setenv("JOURNAL_ENABLED", "false")
	t.Setenv("REDIS_DB", "not-a-number")

	c := Load(filepath.Join(t.TempDir(), "missing.env"))
	if c.ChainID != 44787 || c.ListConcurrency != 3 || c.JournalEnabled {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.RedisDB != 0 {
		t.Fatalf("bad int should fall back to default, got %d", c.RedisDB)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	body := "LOAN_REGISTRY_ADDRESS=" + loanReg + "\nAPPLICATION_REGISTRY_ADDRESS=" + appReg + "\nMICROLEND_TEST_ONLY=1\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	// godotenv sets process env directly; clear after.
	t.Setenv("LOAN_REGISTRY_ADDRESS", "")
	t.Setenv("APPLICATION_REGISTRY_ADDRESS", "")
	t.Setenv("MICROLEND_TEST_ONLY", "")
	os.Unsetenv("LOAN_REGISTRY_ADDRESS")
	os.Unsetenv("APPLICATION_REGISTRY_ADDRESS")
	os.Unsetenv("MICROLEND_TEST_ONLY")

	c := Load(path)
	if c.LoanRegistryAddress != loanReg || c.ApplicationRegistryAddress != appReg {
		t.Fatalf(".env not loaded: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		setRegistries(t)
		return Load(filepath.Join(t.TempDir(), "missing.env"))
	}

	cases := map[string]struct {
		mutate func(c *Config)
		want   string
	}{
		"missing registry": {func(c *Config) { c.LoanRegistryAddress = "" }, "missing registry"},
		"bad address":      {func(c *Config) { c.RouterAddress = "0x12" }, "ROUTER_ADDRESS"},
		"bad chain":        {func(c *Config) { c.ChainID = 0 }, "CHAIN_ID"},
		"bad port":         {func(c *Config) { c.AppPort = "nope" }, "APP_PORT"},
		"bad poll":         {func(c *Config) { c.ConfirmationPollMS = 0 }, "CONFIRMATION_POLL_MS"},
		"bad seq timeout":  {func(c *Config) { c.SequenceTimeoutSecs = 0 }, "SEQUENCE_TIMEOUT_SECONDS"},
		"missing mysql":    {func(c *Config) { c.MySQLHost = "" }, "MySQL"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}

	c := base()
	c.JournalEnabled = false
	c.MySQLHost = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("mysql config ignored when journal disabled: %v", err)
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &Config{MySQLUser: "u", MySQLPass: "p", MySQLHost: "db", MySQLPort: "3306", MySQLDB: "microlend"}
	if got := c.MySQLDSN(); !strings.HasPrefix(got, "u:p@tcp(db:3306)/microlend?") || !strings.Contains(got, "parseTime=true") {
		t.Fatalf("unexpected dsn %q", got)
	}
}
