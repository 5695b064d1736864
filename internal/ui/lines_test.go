package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu/soft"
	"jumpflood/internal/jfa"
)

func TestLines(t *testing.T) {
	s := core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: "Field", Params: []core.Parameter{{Label: "Size", Value: "64x32"}, {Label: "Passes", Value: "6"}}},
		{Name: "Display", Params: []core.Parameter{{Label: "Mode", Value: "contour"}}},
	}}
	assert.Equal(t, []string{
		"Field",
		"  Size    64x32",
		"  Passes  6",
		"Display",
		"  Mode    contour",
		"TPS 60",
	}, Lines(s, "TPS 60"))
	assert.Equal(t, []string{"x"}, Lines(core.ParameterSnapshot{}, "x"))
}

func TestLinesShowPipelineState(t *testing.T) {
	p, err := jfa.New(soft.New(soft.Options{}), jfa.Options{Size: core.Size{W: 16, H: 8}, Mode: jfa.ModeField})
	require.NoError(t, err)
	defer p.Close()

	lines := Lines(p.Parameters())
	assert.Contains(t, lines, "  Size    16x8")
	assert.Contains(t, lines, "  Passes  4")
	assert.Contains(t, lines, "  Steps   8..1")
	assert.Contains(t, lines, "  Mode    field")
}
