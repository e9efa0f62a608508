package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// FactPopulation promotes refined rows into append-only fact rows. All the
// set logic lives in the warehouse transaction; the stage validates input
// and reports counters.
type FactPopulation struct {
	warehouse ports.Warehouse
	logger    *slog.Logger
}

// NewFactPopulation constructs the stage.
func NewFactPopulation(warehouse ports.Warehouse, logger *slog.Logger) *FactPopulation {
	return &FactPopulation{warehouse: warehouse, logger: logger}
}

// Run promotes everything eligible for the request in one transaction.
func (s *FactPopulation) Run(ctx context.Context, requestID int64) (ports.PromotionResult, error) {
	if requestID <= 0 {
		return ports.PromotionResult{}, &domain.InvalidRequestIDError{Raw: strconv.FormatInt(requestID, 10)}
	}

	result, err := s.warehouse.PromoteFacts(ctx, requestID)
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("promote facts: %w", err)
	}

	s.log().Info("fact population finished",
		"request_id", requestID,
		"post_facts", result.PostFacts,
		"comment_facts", result.CommentFacts,
		"posts_flagged", result.PostsFlagged,
		"summaries_flagged", result.SummariesFlagged)

	return result, nil
}

func (s *FactPopulation) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
