package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

const (
	rawCollection    = "bronze_raw_reddit_data"
	jobsCollection   = "bronze_ingestion_jobs"
	errorsCollection = "bronze_errors"
)

// MongoStore persists raw documents, the per-run job log and the item-level
// error sink. Single-document upserts are the only atomicity it relies on.
type MongoStore struct {
	raw    *mongo.Collection
	jobs   *mongo.Collection
	errors *mongo.Collection
}

var _ ports.DocumentStore = (*MongoStore)(nil)

// New wires the three bronze collections from one database handle.
func New(db *mongo.Database) *MongoStore {
	return &MongoStore{
		raw:    db.Collection(rawCollection),
		jobs:   db.Collection(jobsCollection),
		errors: db.Collection(errorsCollection),
	}
}

// BulkUpsertRaw writes the batch as one unordered bulk of upserts keyed by
// (platform, meta.external_id, keyword). Insert-only fields go through
// $setOnInsert; the owning request id and the silver flag are force-set so
// re-running a keyword under a new request re-links existing documents.
// Individual write failures do not block the rest of the batch.
func (s *MongoStore) BulkUpsertRaw(ctx context.Context, docs []domain.RawDocument) (ports.BulkUpsertResult, error) {
	if len(docs) == 0 {
		return ports.BulkUpsertResult{}, nil
	}

	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		filter := bson.M{
			"platform":         doc.Platform,
			"meta.external_id": doc.Meta.ExternalID,
			"keyword":          doc.Keyword,
		}
		update := bson.M{
			"$setOnInsert": bson.M{
				"platform":     doc.Platform,
				"keyword":      doc.Keyword,
				"fetched_at":   doc.FetchedAt,
				"raw_post":     doc.Post,
				"raw_comments": doc.Comments,
				"meta":         doc.Meta,
			},
			"$set": bson.M{
				"global_keyword_id": doc.RequestID,
				"silver_processed":  false,
			},
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(update).
			SetUpsert(true))
	}

	res, err := s.raw.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) && res != nil {
			return ports.BulkUpsertResult{
				Upserted: int(res.UpsertedCount),
				Matched:  int(res.MatchedCount),
				Failed:   len(bulkErr.WriteErrors),
			}, nil
		}
		return ports.BulkUpsertResult{}, fmt.Errorf("bulk upsert: %w", err)
	}

	return ports.BulkUpsertResult{
		Upserted: int(res.UpsertedCount),
		Matched:  int(res.MatchedCount),
	}, nil
}

// FindUnrefined returns up to limit documents still waiting for refinement
// under the given request.
func (s *MongoStore) FindUnrefined(ctx context.Context, requestID int64, limit int) ([]domain.RawDocument, error) {
	filter := bson.M{
		"silver_processed":  bson.M{"$ne": true},
		"global_keyword_id": requestID,
	}

	cur, err := s.raw.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("find unrefined: %w", err)
	}

	var docs []domain.RawDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode unrefined: %w", err)
	}

	return docs, nil
}

// MarkRefined flags documents whose derived rows are durably committed.
func (s *MongoStore) MarkRefined(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.raw.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"silver_processed": true}},
	)
	if err != nil {
		return fmt.Errorf("mark refined: %w", err)
	}

	return nil
}

// MarkSkipped flags one document as processed with a skip reason, taking it
// out of the refinement queue without scoring it.
func (s *MongoStore) MarkSkipped(ctx context.Context, id primitive.ObjectID, reason string) error {
	_, err := s.raw.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"silver_processed": true, "skipped_reason": reason},
	})
	if err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}

	return nil
}

// StartJob opens one audit record for an ingestion run.
func (s *MongoStore) StartJob(ctx context.Context, platform, keyword string, requestID int64) (primitive.ObjectID, error) {
	res, err := s.jobs.InsertOne(ctx, bson.M{
		"platform":          platform,
		"keyword":           keyword,
		"global_keyword_id": requestID,
		"started_at":        time.Now().UTC(),
		"status":            "running",
	})
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("start job: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("start job: unexpected inserted id type %T", res.InsertedID)
	}

	return id, nil
}

// FinishJob closes the audit record with final status and counters.
func (s *MongoStore) FinishJob(ctx context.Context, jobID primitive.ObjectID, status string, stats domain.JobStats) error {
	_, err := s.jobs.UpdateByID(ctx, jobID, bson.M{
		"$set": bson.M{
			"finished_at": time.Now().UTC(),
			"status":      status,
			"stats":       stats,
		},
	})
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}

	return nil
}

// RecordItemError appends one item-level failure to the error sink.
func (s *MongoStore) RecordItemError(ctx context.Context, item domain.ItemError) error {
	if item.OccurredAt.IsZero() {
		item.OccurredAt = time.Now().UTC()
	}

	if _, err := s.errors.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("record item error: %w", err)
	}

	return nil
}
