package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "aid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, _, err := Load(DefaultPath, false)
	require.NoError(t, err)

	assert.Equal(t, ".venv", cfg.Bootstrap.VenvDir)
	assert.Equal(t, "wheels", cfg.Bootstrap.WheelDir)
	assert.Equal(t, "requirements.txt", cfg.Bootstrap.Requirements)
	assert.Equal(t, "https://duckduckgo.com/html/", cfg.Crawler.Endpoint)
	assert.Equal(t, 10, cfg.Crawler.MaxResults)
	assert.Equal(t, 3, cfg.Crawler.MaxPages)
	assert.Equal(t, "crawl_results.json", cfg.Crawler.Output)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project: aid
bootstrap:
  python: python3.11
  venvDir: env
  wheelDir: cache/wheels
  requirements: reqs.txt
crawler:
  maxResults: 25
  delay: 250ms
hooks:
  afterSetup:
    - name: smoke
      run: python -c "import requests"
`)

	cfg, _, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "aid", cfg.Project)
	assert.Equal(t, "python3.11", cfg.Bootstrap.Python)
	assert.Equal(t, "env", cfg.Bootstrap.VenvDir)
	assert.Equal(t, "cache/wheels", cfg.Bootstrap.WheelDir)
	assert.Equal(t, 25, cfg.Crawler.MaxResults)
	assert.Equal(t, 3, cfg.Crawler.MaxPages, "default still applies")

	require.Len(t, cfg.Hooks.AfterSetup, 1)
	assert.Equal(t, "smoke", cfg.Hooks.AfterSetup[0].Name)

	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, filepath.Join(dir, "reqs.txt"), cfg.ResolvePath("reqs.txt"))
	assert.Equal(t, "/abs/reqs.txt", cfg.ResolvePath("/abs/reqs.txt"))

	delay, err := cfg.Crawler.ResolveDelay()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, delay)

	timeout, err := cfg.Crawler.ResolveTimeout()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, timeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bootstrap:\n  venvDir: from-file\n")

	t.Setenv("AID_VENV_DIR", "from-env")
	t.Setenv("AID_MAX_RESULTS", "7")

	cfg, _, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bootstrap.VenvDir)
	assert.Equal(t, 7, cfg.Crawler.MaxResults)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.env"), []byte("AID_WHEEL_DIR=/srv/wheels\n"), 0o644))
	path := writeConfig(t, dir, "envFiles:\n  - local.env\n")

	cfg, envMap, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/srv/wheels", cfg.Bootstrap.WheelDir)
	assert.Equal(t, "/srv/wheels", envMap["AID_WHEEL_DIR"])
}

func TestResolveDurationErrors(t *testing.T) {
	c := CrawlerConfig{Delay: "not-a-duration"}
	_, err := c.ResolveDelay()
	require.Error(t, err)

	c = CrawlerConfig{Timeout: "-5s"}
	_, err = c.ResolveTimeout()
	require.Error(t, err)
}
