package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bilet-lending/internal/adapters/persistence/repositories"
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/password"
)

func Test_GetEnvInt(t *testing.T) {
	t.Setenv("BILET_TEST_INT", " 42 ")
	assert.Equal(t, 42, getEnvInt("BILET_TEST_INT", 7))

	t.Setenv("BILET_TEST_INT", "forty-two")
	assert.Equal(t, 7, getEnvInt("BILET_TEST_INT", 7))

	assert.Equal(t, 7, getEnvInt("BILET_TEST_UNSET", 7))
}

func Test_Load(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("PROD_DB_PATH", "/tmp/bilet-test.db")
	t.Setenv("RENEWAL_MAX", "3")
	t.Setenv("CRON_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/bilet-test.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Lending.RenewalMax)
	assert.Equal(t, 21, cfg.Lending.LoanDays)
	assert.Equal(t, 30, cfg.JWT.RefreshTokenDays)
	assert.NotEqual(t, cfg.JWT.Secret, cfg.JWT.RefreshSecret)
	assert.Equal(t, "45 3 * * *", cfg.Cron.CleanupSpec)
	assert.False(t, cfg.Cron.Enabled)
	assert.Equal(t, "https://bilet.example.org", cfg.GetAllowedOrigins())
}

func Test_Load_RejectsUnknownModeAndDriver(t *testing.T) {
	t.Setenv("APP_MODE", "staging")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "oracle")
	_, err = Load()
	assert.Error(t, err)
}

func Test_BuildDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := buildDialector(DatabaseConfig{Driver: driver, Host: "localhost", Port: "1", User: "u", DBName: "bilet", Path: "x.db"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}
}

func Test_Seeder_IsIdempotent(t *testing.T) {
	password.Cost = bcrypt.MinCost

	store := repositories.NewMemoryStore()
	users := services.NewUserService(store, nil)
	seeder := NewSeeder(store, users)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx, true))
	require.NoError(t, seeder.Run(ctx, true))

	_, total, err := store.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	groups, total, err := store.ListBookGroups(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	copies, err := store.ListCopies(ctx, groups[0].ID)
	require.NoError(t, err)
	assert.Len(t, copies, 3)
}
