package models

const (
	SentimentNegative = 0
	SentimentPositive = 1

	LabelNegative = "NEGATIVE"
	LabelPositive = "POSITIVE"
)

// Sentiment is the classifier's verdict on a piece of review text.
// Confidence is a percentage in [0, 100] rounded to two decimals.
type Sentiment struct {
	ID         int     `json:"sentiment"`
	Label      string  `json:"sentiment_label"`
	Confidence float64 `json:"confidence"`
}

// LabelFor maps a sentiment id to its label.
func LabelFor(id int) string {
	if id == SentimentPositive {
		return LabelPositive
	}
	return LabelNegative
}
