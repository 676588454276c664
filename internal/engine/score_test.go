package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/derby/internal/model"
)

func TestScore(t *testing.T) {
	assert.Equal(t, 100.0, Score(100, 100))
	assert.Equal(t, 60.0, Score(60, 100))
	assert.Equal(t, 50.0, Score(40, 80))
	assert.InDelta(t, 33.333, Score(1, 3), 0.001)
}

func TestSpeedClassFor(t *testing.T) {
	tests := []struct {
		condition int
		want      model.SpeedClass
	}{
		{1, model.SpeedSlow},
		{30, model.SpeedSlow},
		{50, model.SpeedSlow},
		{51, model.SpeedNormal},
		{60, model.SpeedNormal},
		{75, model.SpeedNormal},
		{76, model.SpeedFast},
		{80, model.SpeedFast},
		{100, model.SpeedFast},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpeedClassFor(tt.condition), "condition %d", tt.condition)
	}
}

func TestRank_OrdersByScoreDescending(t *testing.T) {
	horses := stable(80, 60, 100)
	results, err := Rank(model.Run{Entrants: horses, Distance: 1400}, 100)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 0, 1}, model.IDs(results))
	assert.Equal(t, 100.0, results[0].Score)
	assert.Equal(t, 80.0, results[1].Score)
	assert.Equal(t, 60.0, results[2].Score)
}

func TestRank_IsPure(t *testing.T) {
	run := model.Run{Entrants: stable(12, 99, 47, 63), Distance: 2000}

	first, err := Rank(run, 99)
	require.NoError(t, err)
	second, err := Rank(run, 99)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, stable(12, 99, 47, 63), run.Entrants, "entrants are not reordered")
}

func TestRank_EmptyRun(t *testing.T) {
	results, err := Rank(model.Run{Distance: 1200}, 50)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRank_RejectsNonPositiveBest(t *testing.T) {
	_, err := Rank(model.Run{Entrants: stable(10)}, 0)
	assert.Error(t, err)
}

func TestHoldFor(t *testing.T) {
	assert.Equal(t, 2400*time.Millisecond, HoldFor(1200, 2*time.Millisecond))
	assert.Equal(t, time.Duration(0), HoldFor(2200, 0))
}
