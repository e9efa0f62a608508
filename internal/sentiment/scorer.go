package sentiment

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

const defaultBatchSize = 50

// Role distinguishes post texts from comment texts inside one scored batch.
type Role string

const (
	RolePost    Role = "post"
	RoleComment Role = "comment"
)

// Key tags one text with its origin so results reassemble by lookup rather
// than positional arithmetic.
type Key struct {
	DocID primitive.ObjectID
	Role  Role
	Index int
}

// Input is one tagged text headed into the classifier.
type Input struct {
	Key  Key
	Text string
}

// Raw model labels from the RoBERTa checkpoint; anything unexpected maps
// to Neutral.
var labelMap = map[string]domain.SentimentLabel{
	"LABEL_0": domain.LabelNegative,
	"LABEL_1": domain.LabelNeutral,
	"LABEL_2": domain.LabelPositive,
}

// Scorer batches tagged texts through the external classifier and translates
// raw model output into the fixed 3-class taxonomy.
type Scorer struct {
	classifier ports.Classifier
	batchSize  int
}

// NewScorer wires a classifier; batchSize defaults to 50.
func NewScorer(classifier ports.Classifier, batchSize int) *Scorer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Scorer{classifier: classifier, batchSize: batchSize}
}

// Score classifies every input and returns results keyed by tag. A failing
// chunk fails the whole call: no partial score set ever escapes.
func (s *Scorer) Score(ctx context.Context, inputs []Input) (map[Key]domain.Sentiment, error) {
	results := make(map[Key]domain.Sentiment, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	for start := 0; start < len(inputs); start += s.batchSize {
		end := min(start+s.batchSize, len(inputs))
		chunk := inputs[start:end]

		texts := make([]string, len(chunk))
		for i, in := range chunk {
			texts[i] = in.Text
		}

		raw, err := s.classifier.Classify(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("classify batch of %d: %w", len(texts), err)
		}
		if len(raw) != len(texts) {
			return nil, fmt.Errorf("classifier returned %d results for %d texts", len(raw), len(texts))
		}

		for i, score := range raw {
			label, ok := labelMap[score.Label]
			if !ok {
				label = domain.LabelNeutral
			}
			results[chunk[i].Key] = domain.Sentiment{Label: label, Score: round4(score.Score)}
		}
	}

	return results, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
