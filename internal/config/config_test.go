package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cliwrap/cliwrap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault tests the baked-in defaults.
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1024, cfg.Wrapper.QueueCapacity)
	assert.Equal(t, 100*time.Millisecond, cfg.Wrapper.PollTimeout)
	assert.Equal(t, 30*time.Second, cfg.Completion.RebuildInterval)
	assert.Equal(t, 8, cfg.Pool.Workers)
}

// TestLoadFromEnv tests environment overrides.
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("WRAPPER_POLL_TIMEOUT", "250ms")
	t.Setenv("POOL_WORKERS", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Wrapper.PollTimeout)
	assert.Equal(t, 3, cfg.Pool.Workers)
}

// TestLoadSettings tests TOML settings loading and validation.
func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cliwrap.toml")
	content := `
executable = "sqlplus"
args = ["-S", "/nolog"]
workdir = "` + dir + `"
encoding = "cp866"
stderr_prefix = "ERR| "
ignore = ["vendor/**"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlplus", s.Executable)
	assert.Equal(t, []string{"-S", "/nolog"}, s.Args)
	assert.Equal(t, dir, s.Workdir)
	assert.Equal(t, "cp866", s.Encoding)
	assert.Equal(t, "ERR| ", s.StderrPrefix)
	assert.Equal(t, []string{"vendor/**"}, s.Ignore)
}

// TestLoadSettingsValidation tests the failure modes a user can hit.
func TestLoadSettingsValidation(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "nope.toml")
	_, err := config.LoadSettings(missing)
	assert.Error(t, err)

	noExec := filepath.Join(dir, "noexec.toml")
	require.NoError(t, os.WriteFile(noExec, []byte(`args = ["-S"]`), 0o644))
	_, err = config.LoadSettings(noExec)
	assert.ErrorContains(t, err, "executable is required")

	badDir := filepath.Join(dir, "baddir.toml")
	require.NoError(t, os.WriteFile(badDir, []byte(
		"executable = \"sh\"\nworkdir = \"/definitely/not/here\"\n"), 0o644))
	_, err = config.LoadSettings(badDir)
	assert.ErrorContains(t, err, "does not exist")
}
