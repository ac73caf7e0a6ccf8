package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DROIDVIEW_CONFIG", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	c, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:3000", c.Server.URL)
	require.Equal(t, 5*time.Second, c.Server.Timeout)
	require.Equal(t, time.Second, c.Frame.Interval)
	require.Equal(t, 300*time.Millisecond, c.Input.LongPress)
	require.Equal(t, 250*time.Millisecond, c.UI.ClickThreshold)
	require.Equal(t, 1, c.UI.EdgePadding)
	require.Equal(t, FitWidth, c.UI.Fit)
	require.Equal(t, 2*time.Second, c.UI.ButtonCooldown)
	require.Equal(t, 500*time.Millisecond, c.UI.KeyCooldown)
	require.Equal(t, filepath.Join(home, ".local", "state", "droidview", "droidview.log"), c.Log.Path)
	require.False(t, c.Journal.Enabled)
	require.Empty(t, c.File)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "droidview")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[server]
url = "http://10.0.0.5:3000"

[frame]
interval = "600ms"

[journal]
enabled = true
path = "~/journal.db"
`), 0o644))

	t.Setenv("DROIDVIEW_UI_FIT", "contain")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("interval", time.Second, "")
	flags.Bool("debug", false, "")
	require.NoError(t, flags.Parse([]string{"--debug"}))

	c, err := Load(flags)
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:3000", c.Server.URL)
	require.Equal(t, 600*time.Millisecond, c.Frame.Interval, "unset flag must not override the file")
	require.Equal(t, FitContain, c.UI.Fit)
	require.True(t, c.Log.Debug)
	require.True(t, c.Journal.Enabled)
	require.Equal(t, filepath.Join(home, "journal.db"), c.Journal.Path)
	require.Equal(t, filepath.Join(dir, "config.toml"), c.File)

	require.NoError(t, flags.Set("interval", "250ms"))
	c, err = Load(flags)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, c.Frame.Interval)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	home := isolate(t)
	t.Setenv("DROIDVIEW_CONFIG", filepath.Join(home, "nope.toml"))
	_, err := Load(nil)
	require.Error(t, err)
}

func TestValidateFit(t *testing.T) {
	isolate(t)
	t.Setenv("DROIDVIEW_UI_FIT", "stretch")
	_, err := Load(nil)
	require.ErrorContains(t, err, "ui.fit")
}

func TestSettingsUseFileKeys(t *testing.T) {
	isolate(t)
	c, err := Load(nil)
	require.NoError(t, err)
	s := c.Settings()
	require.Equal(t, "1s", s["frame"].(map[string]any)["interval"])
	require.Equal(t, "300ms", s["input"].(map[string]any)["long_press"])
}
