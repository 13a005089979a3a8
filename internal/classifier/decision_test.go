package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

func TestSoftmaxIsStable(t *testing.T) {
	probs := softmax([]float32{1000, 1001})

	require.Len(t, probs, 2)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-9)
	assert.False(t, math.IsNaN(probs[0]))
	assert.Greater(t, probs[1], probs[0])
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name       string
		logits     []float32
		wantID     int
		wantLabel  string
		confidence float64
	}{
		{"positive", []float32{-2, 3}, 1, models.LabelPositive, 99.33},
		{"negative", []float32{2, -1}, 0, models.LabelNegative, 95.26},
		{"tie resolves to negative", []float32{0.5, 0.5}, 0, models.LabelNegative, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decide(tc.logits)
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, got.ID)
			assert.Equal(t, tc.wantLabel, got.Label)
			assert.Equal(t, tc.confidence, got.Confidence)
		})
	}
}

func TestDecideConfidenceRangeAndLabelAgreement(t *testing.T) {
	for a := float32(-20); a <= 20; a += 2.5 {
		for b := float32(-20); b <= 20; b += 2.5 {
			got, err := decide([]float32{a, b})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.Confidence, 50.0)
			assert.LessOrEqual(t, got.Confidence, 100.0)
			assert.Equal(t, got.ID == models.SentimentPositive, got.Label == models.LabelPositive)
		}
	}
}

func TestDecideRejectsBadLogits(t *testing.T) {
	_, err := decide([]float32{1, 2, 3})
	require.ErrorIs(t, err, ErrInference)

	_, err = decide([]float32{float32(math.NaN()), 1})
	require.ErrorIs(t, err, ErrInference)
}
