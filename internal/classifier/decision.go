package classifier

import (
	"fmt"
	"math"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

const numLabels = 2

// softmax normalises logits into probabilities. The max logit is subtracted
// first so large values do not overflow.
func softmax(logits []float32) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = math.Max(maxLogit, float64(l))
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(float64(l) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// decide applies argmax over the softmax of two logits. Ties resolve to the
// negative class.
func decide(logits []float32) (models.Sentiment, error) {
	if len(logits) != numLabels {
		return models.Sentiment{}, fmt.Errorf("%w: expected %d logits, got %d", ErrInference, numLabels, len(logits))
	}
	for _, l := range logits {
		if math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
			return models.Sentiment{}, fmt.Errorf("%w: non-finite logit %v", ErrInference, l)
		}
	}

	probs := softmax(logits)
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}

	return models.Sentiment{
		ID:         best,
		Label:      models.LabelFor(best),
		Confidence: roundTo2(probs[best] * 100),
	}, nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
