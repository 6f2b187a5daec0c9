package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigclass/internal/signal"
)

func TestScorePerfectPrediction(t *testing.T) {
	t.Parallel()

	pred := matrixOf(2, 3,
		1, 0, 0,
		0, 0, 1,
	)
	bounded, logLoss, err := Score(signal.Labels{0, 2}, pred)
	require.NoError(t, err)

	assert.InDelta(t, 0, logLoss, 1e-12)
	assert.InDelta(t, 100, bounded, 1e-9)
}

func TestScoreUniformPrediction(t *testing.T) {
	t.Parallel()

	third := 1.0 / 3
	pred := matrixOf(3, 3,
		third, third, third,
		third, third, third,
		third, third, third,
	)
	bounded, logLoss, err := Score(signal.Labels{0, 1, 2}, pred)
	require.NoError(t, err)

	wantLoss := math.Log(3)
	assert.InDelta(t, wantLoss, logLoss, 1e-12)
	assert.InDelta(t, 100/(1+wantLoss), bounded, 1e-9)
}

func TestScoreClampsZeroProbability(t *testing.T) {
	t.Parallel()

	// True class got exactly zero; the floor must keep the loss finite.
	pred := matrixOf(1, 2, 0, 1)
	bounded, logLoss, err := Score(signal.Labels{0}, pred)
	require.NoError(t, err)

	assert.False(t, math.IsInf(logLoss, 1))
	assert.InDelta(t, -math.Log(probFloor), logLoss, 1e-9)
	assert.Greater(t, bounded, 0.0)
}

func TestScoreWithFloorHonorsConfiguredFloor(t *testing.T) {
	t.Parallel()

	// True class at zero probability: the loss is exactly -ln(floor),
	// so a looser floor must produce a smaller loss than the default.
	pred := matrixOf(1, 2, 0, 1)

	_, logLoss, err := ScoreWithFloor(signal.Labels{0}, pred, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(1e-6), logLoss, 1e-9)

	_, defaultLoss, err := Score(signal.Labels{0}, pred)
	require.NoError(t, err)
	assert.Less(t, logLoss, defaultLoss)

	// Floors outside (0, 1) fall back to the default clamp.
	for _, floor := range []float64{0, -1, 1, 2} {
		_, got, err := ScoreWithFloor(signal.Labels{0}, pred, floor)
		require.NoError(t, err)
		assert.InDelta(t, defaultLoss, got, 1e-9, "floor %g", floor)
	}
}

func TestScoreMonotoneInConfidence(t *testing.T) {
	t.Parallel()

	confident := matrixOf(1, 2, 0.9, 0.1)
	hesitant := matrixOf(1, 2, 0.6, 0.4)

	bConf, lConf, err := Score(signal.Labels{0}, confident)
	require.NoError(t, err)
	bHes, lHes, err := Score(signal.Labels{0}, hesitant)
	require.NoError(t, err)

	assert.Less(t, lConf, lHes)
	assert.Greater(t, bConf, bHes)
}

func TestScoreDimensionMismatch(t *testing.T) {
	t.Parallel()

	pred := matrixOf(2, 2, 0.5, 0.5, 0.5, 0.5)

	_, _, err := Score(signal.Labels{0}, pred)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, _, err = Score(signal.Labels{0, 2}, pred)
	assert.ErrorIs(t, err, ErrDimensionMismatch, "label outside class range")

	_, _, err = Score(nil, Matrix{})
	assert.ErrorIs(t, err, ErrDimensionMismatch, "empty prediction")
}

func TestAccuracy(t *testing.T) {
	t.Parallel()

	pred := matrixOf(4, 2,
		0.9, 0.1,
		0.2, 0.8,
		0.6, 0.4,
		0.3, 0.7,
	)
	acc, err := Accuracy(signal.Labels{0, 1, 1, 1}, pred)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	_, err = Accuracy(signal.Labels{0}, pred)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
