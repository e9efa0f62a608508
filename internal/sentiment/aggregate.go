package sentiment

import "github.com/Sibtain012/BrandPulse-2.0/internal/domain"

const strongThreshold = 0.7

// Aggregate reduces a post's comment sentiments to one verdict using a
// majority of confident votes. Only signals above the strong threshold
// count; the winner's confidence is its share of the strong votes. Ties and
// all-Neutral strong sets yield (Neutral, 0.0). Deterministic and
// order-independent.
func Aggregate(sentiments []domain.Sentiment) domain.Sentiment {
	if len(sentiments) == 0 {
		return domain.Sentiment{Label: domain.LabelNeutral, Score: 0.0}
	}

	var strong, pos, neg int
	for _, s := range sentiments {
		if s.Score <= strongThreshold {
			continue
		}
		strong++
		switch s.Label {
		case domain.LabelPositive:
			pos++
		case domain.LabelNegative:
			neg++
		}
	}

	if strong == 0 {
		return domain.Sentiment{Label: domain.LabelNeutral, Score: 0.5}
	}

	switch {
	case pos > neg:
		return domain.Sentiment{Label: domain.LabelPositive, Score: round4(float64(pos) / float64(strong))}
	case neg > pos:
		return domain.Sentiment{Label: domain.LabelNegative, Score: round4(float64(neg) / float64(strong))}
	default:
		return domain.Sentiment{Label: domain.LabelNeutral, Score: 0.0}
	}
}
