package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RawPost holds the fields captured from the upstream post as-is.
type RawPost struct {
	Name        string  `bson:"name"`
	Title       string  `bson:"title"`
	Selftext    string  `bson:"selftext"`
	Author      string  `bson:"author"`
	Score       int     `bson:"score"`
	UpvoteRatio float64 `bson:"upvote_ratio"`
	NumComments int     `bson:"num_comments"`
	CreatedUTC  float64 `bson:"created_utc"`
	URL         string  `bson:"url"`
	Subreddit   string  `bson:"subreddit_name_prefixed"`
}

// RawComment is one embedded comment exactly as fetched.
type RawComment struct {
	ID         string  `bson:"id"`
	Body       string  `bson:"body"`
	Author     string  `bson:"author"`
	Score      int     `bson:"score"`
	CreatedUTC float64 `bson:"created_utc"`
}

// RawMeta carries provenance for the fetch that produced a document.
type RawMeta struct {
	ExternalID     string `bson:"external_id"`
	Subreddit      string `bson:"subreddit"`
	APIEndpoint    string `bson:"api_endpoint"`
	ResponseStatus int    `bson:"response_status"`
}

// RawDocument is one externally sourced post plus its comments, stored in the
// document store. The dedup key is (platform, meta.external_id, keyword);
// re-ingestion upserts, never duplicates.
type RawDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Platform        string             `bson:"platform"`
	Keyword         string             `bson:"keyword"`
	RequestID       int64              `bson:"global_keyword_id"`
	FetchedAt       time.Time          `bson:"fetched_at"`
	Post            RawPost            `bson:"raw_post"`
	Comments        []RawComment       `bson:"raw_comments"`
	Meta            RawMeta            `bson:"meta"`
	SilverProcessed bool               `bson:"silver_processed"`
	SkippedReason   string             `bson:"skipped_reason,omitempty"`
}

// SourceItem is one candidate result from a platform search, before any
// filtering or persistence.
type SourceItem struct {
	ExternalID string
	Subreddit  string
	Over18     bool
	Post       RawPost
	Comments   []RawComment
}

// JobStats are the per-run ingestion counters written to the job log.
type JobStats struct {
	Processed         int `bson:"processed"`
	Inserted          int `bson:"inserted"`
	SkippedNSFW       int `bson:"skipped_nsfw"`
	SkippedNonEnglish int `bson:"skipped_non_english"`
	Errors            int `bson:"errors"`
}

// ItemError is one item-level failure recorded in the error sink. Item
// failures never abort a batch.
type ItemError struct {
	Platform   string    `bson:"platform"`
	Keyword    string    `bson:"keyword"`
	ExternalID string    `bson:"external_id,omitempty"`
	Message    string    `bson:"error"`
	OccurredAt time.Time `bson:"occurred_at"`
}
