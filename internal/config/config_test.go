package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
	assert.Equal(t, slog.LevelInfo, cfg.Level())

	cfg.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoadPalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
colors:
  Wind: "#0000ffcc"
default_order: [Wind, Gas]
overlay:
  column: Netzlast
axis:
  title: Electric power
  major_unit: 1000
  unit_label: GW
locale: en
`), 0o644))

	p, err := LoadPalette(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wind", "Gas"}, p.DefaultOrder)
	assert.Equal(t, "Netzlast", p.Overlay.Column)
	assert.Equal(t, 1200.0, p.Canvas.Width)

	th := p.Theme()
	assert.Equal(t, "#0000ffcc", th.Color("Wind"))
	assert.Equal(t, "#d2b48cCC", th.Color("Gas"))
	assert.Equal(t, "#999999CC", th.Color("Andere Erneuerbare"))
	assert.Equal(t, "Electric power", th.AxisTitle)
	assert.Equal(t, "Mo", th.Weekdays[time.Monday])
	assert.Equal(t, "Tu", th.Weekdays[time.Tuesday])
}

func TestLoadPaletteRejectsBadCanvas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas:\n  width: 50\n  height: 600\n"), 0o644))

	_, err := LoadPalette(path)
	assert.Error(t, err)
}

func TestDefaultPalette(t *testing.T) {
	p, err := LoadPalette("")
	require.NoError(t, err)
	assert.Equal(t, "Stromverbrauch", p.Overlay.Column)
	assert.Len(t, p.DefaultOrder, 7)
}
