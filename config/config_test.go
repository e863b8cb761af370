package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	var path = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaults(t *testing.T) {
	var dir = t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.ini"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 10, cfg.OJSRetries)
	assert.Equal(t, 3*time.Second, cfg.OJSRetryDelay)
	assert.Equal(t, 40*time.Second, cfg.OJSTimeout)
}

func TestIniFile(t *testing.T) {
	var dir = t.TempDir()
	var path = writeFile(t, dir, "ojsbridge.ini", `
listen = 0.0.0.0:9000
admin_key = admin
token_ttl = 5m
default_templates = 1, 2
ojs_retries = 3
ojs_rate = 2.5
log_format = json
`)
	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "admin", cfg.AdminKey)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []int{1, 2}, cfg.DefaultTemplates)
	assert.Equal(t, 3, cfg.OJSRetries)
	assert.Equal(t, 2.5, cfg.OJSRate)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/document/%d/", cfg.DocumentURL) // default
}

func TestEnvOverridesIni(t *testing.T) {
	var dir = t.TempDir()
	var path = writeFile(t, dir, "ojsbridge.ini", "secret = from-ini\nlisten = 127.0.0.1:1\n")
	t.Setenv(EnvPrefix+"SECRET", "from-env")

	var envFile = writeFile(t, dir, ".env", "OJSBRIDGE_SUBMIT_TIMEOUT=30s\n")
	t.Cleanup(func() { os.Unsetenv("OJSBRIDGE_SUBMIT_TIMEOUT") })

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Secret)
	assert.Equal(t, "127.0.0.1:1", cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.SubmitTimeout)
}

func TestInvalidValues(t *testing.T) {
	var dir = t.TempDir()
	for _, content := range []string{
		"token_ttl = soon",
		"ojs_retries = -1",
		"default_templates = 1,a",
		"log_format = xml",
	} {
		var path = writeFile(t, dir, "bad.ini", content)
		_, err := Load(path, filepath.Join(dir, "missing.env"))
		assert.Error(t, err, content)
	}
}
