package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"jumpflood/internal/core"
	pcore "jumpflood/pkg/core"
)

func TestParseSizes(t *testing.T) {
	sizes, err := parseSizes(" 64x32, 8x8 ,")
	require.NoError(t, err)
	assert.Equal(t, []core.Size{{W: 64, H: 32}, {W: 8, H: 8}}, sizes)

	for _, bad := range []string{"", "64", "ax3", "0x4"} {
		_, err := parseSizes(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildScenarios(t *testing.T) {
	sets := buildScenarios([]core.Size{{W: 16, H: 16}, {W: 2, H: 1}}, 2, pcore.NewRNG(1))
	require.Len(t, sets, 6)
	assert.Equal(t, core.Point{}, sets[0].seed, "each size starts at the origin corner")
	assert.Equal(t, core.Size{W: 2, H: 1}, sets[3].size)
}

func TestRunScenarioCoverage(t *testing.T) {
	// Seed pixel (3,17): the row below it is one pixel away, so only the
	// final step of 1 reaches it.
	sc := scenario{size: core.Size{W: 32, H: 20}, seed: core.Point{X: 3.5, Y: 17.5}}
	res, err := runScenario(context.Background(), sc, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 5, res.derived)
	require.Len(t, res.unreached, 5)
	assert.Equal(t, 5, res.coveredAt)
	assert.Zero(t, res.unreached[4])
	assert.Positive(t, res.unreached[0])
	for i := 1; i < len(res.unreached); i++ {
		assert.LessOrEqual(t, res.unreached[i], res.unreached[i-1], "coverage only grows with more passes")
	}
}

func TestRunScenarioSinglePixel(t *testing.T) {
	res, err := runScenario(context.Background(), scenario{size: core.Size{W: 1, H: 1}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Zero(t, res.derived)
	assert.Empty(t, res.unreached)
	assert.Zero(t, res.coveredAt)
}
