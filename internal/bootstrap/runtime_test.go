package bootstrap

import (
	"context"
	"testing"

	"townsquare/internal/config"
	"townsquare/internal/models"
	"townsquare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		DevBootstrapAdmin: true,
		DevAdminUsername:  "root",
		DevAdminEmail:     "Root@Townsquare.local",
		DevAdminPassword:  "s3cret-password",
	}
}

func TestEnsureDevAdmin_CreatesAdmin(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))

	var u models.User
	require.NoError(t, db.Where("email = ?", "root@townsquare.local").First(&u).Error)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "root", u.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret-password")))
}

func TestEnsureDevAdmin_PromotesExistingUser(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	existing := models.User{Username: "someone", Email: "root@townsquare.local", Password: "keep", Role: models.RoleUser}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))
	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Equal(t, "keep", users[0].Password)
}

func TestEnsureDevAdmin_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"disabled", func(c *config.Config) { c.DevBootstrapAdmin = false }},
		{"production", func(c *config.Config) { c.Env = "production" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewSQLiteDB(t)
			cfg := devConfig()
			tt.mutate(cfg)
			require.NoError(t, EnsureDevAdmin(context.Background(), cfg, db))

			var n int64
			require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

func TestEnsureDevAdmin_RequiresPassword(t *testing.T) {
	cfg := devConfig()
	cfg.DevAdminPassword = ""
	assert.Error(t, EnsureDevAdmin(context.Background(), cfg, testutil.NewSQLiteDB(t)))
}
