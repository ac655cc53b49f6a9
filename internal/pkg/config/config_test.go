package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreBackend)
	assert.Equal(t, 8, cfg.HashConcurrency)
	assert.Equal(t, 4, cfg.EventWorkers)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":    secret,
		"ENV":           "production",
		"STORE_BACKEND": "postgres",
		"DATABASE_URL":  "postgres://u:p@localhost:5432/accounts",
		"COOKIE_SECURE": "true",
		"REDIS_DB":      "2",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := map[string]struct {
		env  map[string]string
		want string
	}{
		"missing secret": {
			env:  map[string]string{},
			want: "JWT_SECRET",
		},
		"short secret": {
			env:  map[string]string{"JWT_SECRET": "short"},
			want: "at least 32 bytes",
		},
		"unknown backend": {
			env:  map[string]string{"JWT_SECRET": secret, "STORE_BACKEND": "sqlite"},
			want: "STORE_BACKEND",
		},
		"postgres without url": {
			env:  map[string]string{"JWT_SECRET": secret, "STORE_BACKEND": "postgres"},
			want: "DATABASE_URL",
		},
		"zero hash concurrency": {
			env:  map[string]string{"JWT_SECRET": secret, "HASH_CONCURRENCY": "0"},
			want: "HASH_CONCURRENCY",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tc.env))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.want), err.Error())
		})
	}
}
