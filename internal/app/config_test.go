package app

import (
	"flag"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumpflood/internal/jfa"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jfa.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConfigDefaultsValidate(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x10, B: 0x14, A: 255}, bg)
}

func TestConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
width = 300
height = 200
mode = "contour"
passes = 4
background = "#ff8000"
`)
	cfg := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.Bind(fs)
	require.NoError(t, fs.Parse([]string{"-config", path, "-width", "640", "-mode", "field"}))
	require.NoError(t, cfg.Resolve(fs))

	assert.Equal(t, 640, cfg.Width, "flag wins")
	assert.Equal(t, 200, cfg.Height, "file overlays default")
	assert.Equal(t, jfa.ModeField, cfg.Mode)
	assert.Equal(t, 4, cfg.Passes)
	assert.Equal(t, int64(42), cfg.Seed, "absent key keeps default")
	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 128, B: 0, A: 255}, bg)
}

func TestConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad mode":       `mode = "voronoi"`,
		"bad size":       `width = 0`,
		"negative pass":  `passes = -1`,
		"bad background": `background = "teal"`,
		"syntax":         `width = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig()
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			cfg.Bind(fs)
			require.NoError(t, fs.Parse([]string{"-config", writeConfig(t, body)}))
			assert.Error(t, cfg.Resolve(fs))
		})
	}
}

func TestConfigMissingFile(t *testing.T) {
	cfg := NewConfig()
	assert.ErrorIs(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.toml")), os.ErrNotExist)
}
