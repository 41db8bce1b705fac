package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "live", cfg.Paystack.Mode)
	assert.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, uint(2), cfg.Paystack.MaxTries)
	assert.Equal(t, 20500*time.Millisecond, cfg.Paystack.Budget())
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.Paystack.Budget())
	assert.True(t, cfg.Verification.AllowClientCart)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Database.DSN)
	assert.False(t, cfg.IsProduction())
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET", "sk_live_x")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PAYSTACK_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("VERIFICATION_ALLOW_CLIENT_CART", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://shop.example.com,https://www.shop.example.com")

	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "sk_live_x", cfg.Paystack.SecretKey)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Verification.AllowClientCart)
	assert.Equal(t, []string{"https://shop.example.com", "https://www.shop.example.com"}, cfg.CORS.AllowOrigins)
}

func TestFromViper_RejectsStubInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PAYSTACK_MODE", "stub")

	_, err := FromViper(New())
	assert.ErrorContains(t, err, "stub")
}

func TestFromViper_RejectsWriteTimeoutBelowProcessorBudget(t *testing.T) {
	t.Setenv("SERVER_WRITE_TIMEOUT", "20s")

	_, err := FromViper(New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write_timeout")

	t.Setenv("PAYSTACK_TIMEOUT", "5s")
	cfg, err := FromViper(New())
	require.NoError(t, err)
	assert.Equal(t, 10500*time.Millisecond, cfg.Paystack.Budget())
}

func TestFromViper_RejectsUnknownMode(t *testing.T) {
	t.Setenv("PAYSTACK_MODE", "sandbox")

	_, err := FromViper(New())
	assert.ErrorContains(t, err, "paystack.mode")
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`items:
  marriage-honorable:
    - https://files.example.com/a.pdf
    - https://files.example.com/a.epub
  becoming-balanced-man:
    - https://files.example.com/b.pdf
`), 0o600))

	items, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://files.example.com/a.pdf", "https://files.example.com/a.epub"}, items["marriage-honorable"])
	assert.Len(t, items, 2)
}

func TestLoadCatalogFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items":{}}`), 0o600))

	_, err := LoadCatalogFile(path)
	assert.ErrorContains(t, err, "no items")
}

func TestFromViper_CatalogFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items":{"book":["https://x/book.pdf"]}}`), 0o600))
	t.Setenv("CATALOG_FILE", path)

	cfg, err := FromViper(New())
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"book": {"https://x/book.pdf"}}, cfg.Catalog.Items)
}
