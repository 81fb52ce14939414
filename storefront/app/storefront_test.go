package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/app"
	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/testapi"
)

func testConfig(t *testing.T, api *testapi.Backend, driver string) config.Config {
	t.Helper()
	cfg, err := config.Load(config.WithAPIBaseURL(api.URL()))
	require.NoError(t, err)
	cfg.Session.Driver = driver
	cfg.Session.Path = filepath.Join(t.TempDir(), "auth-info")
	cfg.Session.DSN = ""
	return cfg
}

func TestNew_SessionSurvivesRestart(t *testing.T) {
	t.Parallel()
	api := testapi.New()
	t.Cleanup(api.Close)
	ctx := context.Background()

	for _, driver := range []string{config.DriverFile, config.DriverSQLite} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, api, driver)

			sf, err := app.New(ctx, zap.NewNop(), cfg)
			require.NoError(t, err)
			_, err = sf.Hooks.Auth.Login(ctx, model.LoginRequest{UserID: "u1", Passwd: "pw1"})
			require.NoError(t, err)
			require.NoError(t, sf.Close())

			sf, err = app.New(ctx, zap.NewNop(), cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = sf.Close() })
			require.True(t, sf.Session.IsAuthenticated())
			require.Equal(t, "u1", sf.Session.UserID())

			me, err := sf.Hooks.Users.Me(ctx)
			require.NoError(t, err)
			require.Equal(t, int64(1000), me.Point)
		})
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	t.Parallel()
	api := testapi.New()
	t.Cleanup(api.Close)

	_, err := app.New(context.Background(), zap.NewNop(), testConfig(t, api, "redis"))
	require.ErrorContains(t, err, `unknown session driver "redis"`)
}

func TestJanitor(t *testing.T) {
	t.Parallel()
	api := testapi.New()
	t.Cleanup(api.Close)

	sf, err := app.New(context.Background(), zap.NewNop(), testConfig(t, api, config.DriverFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sf.Close() })

	_, err = sf.Janitor("not a schedule")
	require.Error(t, err)

	c, err := sf.Janitor("@every 30s")
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
}
