package config

import (
	"strings"
	"testing"

	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 40000, cfg.Customers.Count)
	assert.Equal(t, 0.35, cfg.Customers.ChurnRate)
	assert.Equal(t, "2023-01-01", cfg.Horizon.Start)
	assert.Equal(t, "2025-12-31", cfg.Horizon.End)
	assert.Equal(t, 14, cfg.Subscriptions.TrialDays)
	assert.Equal(t, 30, cfg.Payments.CycleDays)
	assert.Equal(t, "data/raw", cfg.Output.Dir)
	assert.Equal(t, "DATABASE_URL", cfg.Database.URLEnv)
	assert.Len(t, cfg.Channels.Catalog, 6)

	require.NoError(t, cfg.Validate())
}

func loadYAML(t *testing.T, doc string) *Config {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	return cfg
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	cfg := loadYAML(t, `
seed: 7
customers:
  count: 100
horizon:
  start: "2023-01-01"
  end: "2023-12-31"
output:
  format: postgresql
`)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 100, cfg.Customers.Count)
	assert.Equal(t, "2023-12-31", cfg.Horizon.End)
	assert.Equal(t, "postgres", cfg.Output.Format)

	// untouched keys keep their defaults
	assert.Equal(t, 0.35, cfg.Customers.ChurnRate)
	assert.Equal(t, Default().Distributions.Country, cfg.Distributions.Country)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromReplacesLists(t *testing.T) {
	cfg := loadYAML(t, `
distributions:
  country:
    - value: US
      weight: 0.5
    - value: FR
      weight: 0.5
`)

	assert.Equal(t, []Weighted{{"US", 0.5}, {"FR", 0.5}}, cfg.Distributions.Country)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "inverted horizon",
			mutate: func(c *Config) { c.Horizon.Start, c.Horizon.End = "2024-01-01", "2023-01-01" },
			errMsg: "must be before end",
		},
		{
			name:   "equal horizon",
			mutate: func(c *Config) { c.Horizon.End = c.Horizon.Start },
			errMsg: "must be before end",
		},
		{
			name:   "bad date",
			mutate: func(c *Config) { c.Horizon.Start = "01/01/2023" },
			errMsg: "invalid horizon start",
		},
		{
			name:   "zero customers",
			mutate: func(c *Config) { c.Customers.Count = 0 },
			errMsg: "Count",
		},
		{
			name:   "churn rate above one",
			mutate: func(c *Config) { c.Customers.ChurnRate = 1.5 },
			errMsg: "ChurnRate",
		},
		{
			name:   "weights do not sum to one",
			mutate: func(c *Config) { c.Distributions.DeviceType = []Weighted{{"web", 0.5}, {"ios", 0.3}} },
			errMsg: "device_type weights sum to",
		},
		{
			name:   "plan without price",
			mutate: func(c *Config) { delete(c.Plans.Prices, "team") },
			errMsg: `plan "team" has no price`,
		},
		{
			name:   "oversized batch",
			mutate: func(c *Config) { c.Output.BatchSize = 50000 },
			errMsg: "BatchSize",
		},
		{
			name:   "unknown format",
			mutate: func(c *Config) { c.Output.Format = "parquet" },
			errMsg: "Format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, ierr.IsConfiguration(err))
		})
	}
}

func TestCheckWeights(t *testing.T) {
	assert.NoError(t, CheckWeights("ok", []Weighted{{"a", 0.25}, {"b", 0.75}}))
	assert.NoError(t, CheckWeights("zero weight", []Weighted{{"a", 0}, {"b", 1}}))

	assert.Error(t, CheckWeights("empty", nil))
	assert.Error(t, CheckWeights("dup", []Weighted{{"a", 0.5}, {"a", 0.5}}))
	assert.Error(t, CheckWeights("negative", []Weighted{{"a", -0.5}, {"b", 1.5}}))
}

func TestHorizonBounds(t *testing.T) {
	start, end, err := Horizon{Start: "2023-01-01", End: "2023-12-31"}.Bounds()
	require.NoError(t, err)
	assert.Equal(t, 2023, start.Year())
	assert.Equal(t, 364, int(end.Sub(start).Hours()/24))
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := Default()
	cfg.Database.URLEnv = "FLOWPULSE_TEST_DB_URL"

	t.Setenv("FLOWPULSE_TEST_DB_URL", "")
	_, err := cfg.GetDatabaseURL()
	require.Error(t, err)
	assert.NotEmpty(t, ierr.Hints(err))

	t.Setenv("FLOWPULSE_TEST_DB_URL", "postgres://localhost/flowpulse")
	url, err := cfg.GetDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/flowpulse", url)
}

func TestPlanPricesIgnoreCase(t *testing.T) {
	cfg := loadYAML(t, `
plans:
  free: free
  prices:
    Free: 0
    Basic: 9
    Pro: 19
distributions:
  plan:
    - value: free
      weight: 0.5
    - value: Basic
      weight: 0.25
    - value: Pro
      weight: 0.25
`)

	assert.Equal(t, map[string]float64{"free": 0, "basic": 9, "pro": 19}, cfg.Plans.Prices)
	require.NoError(t, cfg.Validate())

	price, ok := cfg.Plans.Price("Pro")
	require.True(t, ok)
	assert.Equal(t, 19.0, price)

	_, ok = cfg.Plans.Price("team")
	assert.False(t, ok)
}
