package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("ARTIFACT_URL_TTL", "1h")
	t.Setenv("REOPEN_POLICY", "all_flagged")
	t.Setenv("BATCH_CONCURRENCY", "not-a-number")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, time.Hour, cfg.MinIO.URLTTL)
	assert.Equal(t, "all_flagged", cfg.Pipeline.ReopenPolicy)
	assert.Equal(t, 4, cfg.Pipeline.BatchConcurrency)
	assert.Equal(t, 2, cfg.Pipeline.CredentialValidityYears)
	assert.Equal(t, 5, cfg.Pipeline.RenderOversample)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		t.Setenv("AUTH_JWT_SECRET", "secret")
		return Load()
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *AppConfig) {}},
		{name: "memory store", mutate: func(c *AppConfig) { c.StoreDriver = "memory" }},
		{name: "unknown store", mutate: func(c *AppConfig) { c.StoreDriver = "mongo" }, wantErr: "STORE_DRIVER"},
		{name: "unknown reopen policy", mutate: func(c *AppConfig) { c.Pipeline.ReopenPolicy = "sometimes" }, wantErr: "REOPEN_POLICY"},
		{name: "zero concurrency", mutate: func(c *AppConfig) { c.Pipeline.BatchConcurrency = 0 }, wantErr: "BATCH_CONCURRENCY"},
		{name: "negative batch size", mutate: func(c *AppConfig) { c.Pipeline.BatchMaxItems = -1 }, wantErr: "BATCH_MAX_ITEMS"},
		{name: "missing secret", mutate: func(c *AppConfig) { c.Auth.JWTSecret = "" }, wantErr: "AUTH_JWT_SECRET"},
		{name: "bad location", mutate: func(c *AppConfig) { c.TZLocation = "Mars/Olympus" }, wantErr: "TZ_LOCATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	c := &AppConfig{TZLocation: "Asia/Jakarta"}
	assert.Equal(t, "Asia/Jakarta", c.Location().String())

	c.TZLocation = "nowhere"
	assert.Equal(t, time.UTC, c.Location())
}

func TestEnvParsing(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		t.Setenv("REGPORTAL_TEST_STR", "value")
		assert.Equal(t, "value", getEnv("REGPORTAL_TEST_STR", "default"))
		assert.Equal(t, "default", getEnv("REGPORTAL_TEST_UNSET", "default"))
	})

	tests := []struct {
		raw  string
		bool bool
		int  int
		dur  time.Duration
	}{
		{raw: "", bool: true, int: 10, dur: time.Minute},
		{raw: "garbage", bool: true, int: 10, dur: time.Minute},
		{raw: "false", bool: false, int: 10, dur: time.Minute},
		{raw: "123", bool: true, int: 123, dur: time.Minute},
		{raw: "90s", bool: true, int: 10, dur: 90 * time.Second},
		{raw: "-5m", bool: true, int: 10, dur: time.Minute},
	}
	for _, tt := range tests {
		t.Run("raw="+tt.raw, func(t *testing.T) {
			t.Setenv("REGPORTAL_TEST_VAR", tt.raw)
			assert.Equal(t, tt.bool, getEnvBool("REGPORTAL_TEST_VAR", true))
			assert.Equal(t, tt.int, getEnvInt("REGPORTAL_TEST_VAR", 10))
			assert.Equal(t, tt.dur, getEnvDuration("REGPORTAL_TEST_VAR", time.Minute))
		})
	}
}
