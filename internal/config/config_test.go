package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.True(t, cfg.Redirects.Enabled)
	assert.Equal(t, 10, cfg.Redirects.MaxHops)
	assert.True(t, cfg.Revisions.SnapshotBeforeRestore)
	assert.Equal(t, 3, cfg.Revisions.ConflictRetries)
	assert.Equal(t, 120, cfg.RateLimit.PublicPerMinute)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  mode: development
redirects:
  enabled: false
  max_hops: 3
  cache_ttl: 30s
revisions:
  max_per_entity: 0
  snapshot_before_restore: false
rate_limit:
  admin_per_minute: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.Redirects.Enabled)
	assert.Equal(t, 3, cfg.Redirects.MaxHops)
	assert.Equal(t, 30*time.Second, cfg.Redirects.CacheTTL)
	// 파일에 없는 값은 기본값 유지
	assert.Equal(t, 10*time.Second, cfg.Redirects.HitFlushInterval)
	assert.Equal(t, 0, cfg.Revisions.MaxPerEntity)
	assert.False(t, cfg.Revisions.SnapshotBeforeRestore)
	assert.Equal(t, 0, cfg.RateLimit.AdminPerMinute)
	assert.Equal(t, 120, cfg.RateLimit.PublicPerMinute)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("PORT", "9100")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIRECTS_ENABLED", "false")
	t.Setenv("REVISIONS_MAX_PER_ENTITY", "not-a-number")
	t.Setenv("RATE_LIMIT_PUBLIC_PER_MINUTE", "30")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.False(t, cfg.Redirects.Enabled)
	assert.Equal(t, 50, cfg.Revisions.MaxPerEntity, "invalid value is ignored")
	assert.Equal(t, 30, cfg.RateLimit.PublicPerMinute)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"max hops", "redirects:\n  max_hops: 0\n"},
		{"conflict retries", "revisions:\n  conflict_retries: 0\n"},
		{"negative retention", "revisions:\n  max_per_entity: -1\n"},
		{"negative rate limit", "rate_limit:\n  public_per_minute: -5\n"},
		{"secret outside development", "server:\n  mode: production\n"},
		{"broken yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			t.Setenv("JWT_SECRET", "")
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetDSN(t *testing.T) {
	d := DatabaseConfig{User: "blog", Password: "pw", Host: "127.0.0.1", Port: 3306, DBName: "angple_blog"}
	assert.Equal(t, "blog:pw@tcp(127.0.0.1:3306)/angple_blog?charset=utf8mb4&parseTime=True&loc=Local", d.GetDSN())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "(empty)", mask(""))
	assert.Equal(t, "***", mask("abc"))
	assert.Equal(t, "se**et", mask("secret"))
}
