package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/bookstore-storefront/storefront/config"
)

func TestLoad(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://books.local/api/v1")
	t.Setenv("CACHE_STALE_TIME", "30s")
	t.Setenv("KAFKA_ADDRS", "k1:9092,k2:9092")
	t.Setenv("BREAKER_ENABLE", "true")

	cfg, err := config.Load(config.WithSessionPath("/tmp/session.json"))
	require.NoError(t, err)

	require.Equal(t, "http://books.local/api/v1", cfg.API.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Cache.StaleTime)
	require.Equal(t, time.Minute, cfg.Cache.GCTime)
	require.Equal(t, 1, cfg.Cache.Retry)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Kafka.Addrs)
	require.True(t, cfg.Events.Kafka.Enabled())
	require.True(t, cfg.Breaker.Enable)
	require.Equal(t, config.DriverFile, cfg.Session.Driver)
	require.Equal(t, "/tmp/session.json", cfg.Session.Path)
}

func TestLoad_OptionWinsOverEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://env/api/v1")

	cfg, err := config.Load(config.WithAPIBaseURL("http://flag/api/v1"))
	require.NoError(t, err)
	require.Equal(t, "http://flag/api/v1", cfg.API.BaseURL)
}

func TestConfig_StringMasksDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{name: "url", dsn: "postgres://shop:s3cret@db:5432/shop", want: "postgres://shop:xxxxx@db:5432/shop"},
		{name: "key value", dsn: "host=db user=shop password=s3cret", want: "xxxxx"},
		{name: "empty", dsn: "", want: `"DSN": ""`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{Session: config.Session{Driver: config.DriverPgx, DSN: tt.dsn}}
			out := cfg.String()
			require.NotContains(t, out, "s3cret")
			require.Contains(t, out, tt.want)
			require.Equal(t, tt.dsn, cfg.Session.DSN)
		})
	}
}
