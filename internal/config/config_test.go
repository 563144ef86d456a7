package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL.Duration)
	assert.Equal(t, 800.0, cfg.Layout.Width)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "portfolioviz.toml", `
db_path = "/var/lib/portfolioviz.db"
port = 9000
portfolios = ["portfolios/jane.json", "s3://hpd/boshes.json"]
session_ttl = "5m"

[layout]
iterations = 120
`)
	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, "/var/lib/portfolioviz.db", cfg.DBPath)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"portfolios/jane.json", "s3://hpd/boshes.json"}, cfg.Portfolios)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL.Duration)
	assert.Equal(t, 120, cfg.Layout.Iterations)
	assert.Equal(t, 600.0, cfg.Layout.Height, "keys absent from the file keep defaults")
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := writeFile(t, "bad.toml", `prot = 1`)
	err := Default().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prot")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORTFOLIOVIZ_PORT":              "7000",
		"PORTFOLIOVIZ_PORTFOLIOS":        "a.json, b.json",
		"PORTFOLIOVIZ_LAYOUT_ITERATIONS": "10",
		"PORTFOLIOVIZ_LOG_LEVEL":         "DEBUG",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.Portfolios)
	assert.Equal(t, 10, cfg.Layout.Iterations)
	assert.Equal(t, "debug", cfg.LogLevel)

	err := cfg.ApplyEnv(func(k string) (string, bool) {
		return "abc", k == "PORTFOLIOVIZ_PORT"
	})
	assert.Error(t, err)
}

func TestPriority_FlagOverEnvOverFile(t *testing.T) {
	path := writeFile(t, "p.toml", "port = 9000\naws_region = \"eu-west-1\"\nsearch_burst = 3\n")
	t.Setenv("PORTFOLIOVIZ_PORT", "7000")
	t.Setenv("PORTFOLIOVIZ_SEARCH_BURST", "4")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, Default())
	require.NoError(t, fs.Parse([]string{"-port", "6000"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port, "flag wins")
	assert.Equal(t, 4, cfg.SearchBurst, "env beats file")
	assert.Equal(t, "eu-west-1", cfg.AWSRegion, "file beats default")
	assert.Equal(t, "./portfolioviz.db", cfg.DBPath, "default")
}

func TestUnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv("PORTFOLIOVIZ_DB_PATH", "/env.db")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, Default())
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "/env.db", cfg.DBPath)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SessionTTL.Duration = 0
	assert.Error(t, cfg.Validate())
}

func TestGetSetRoundTrip(t *testing.T) {
	cfg := Default()
	other := &Config{}
	for _, key := range Keys() {
		require.NoError(t, other.Set(key, cfg.Get(key)), key)
	}
	assert.Equal(t, cfg, other)
	assert.Error(t, cfg.Set("nope", "1"))
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "PORTFOLIOVIZ_TEST_DOTENV=from-file\n")
	t.Setenv("PORTFOLIOVIZ_TEST_DOTENV", "")
	os.Unsetenv("PORTFOLIOVIZ_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("PORTFOLIOVIZ_TEST_DOTENV"))
	os.Unsetenv("PORTFOLIOVIZ_TEST_DOTENV")
}
