package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SentimentLabel is the fixed 3-class taxonomy every raw model label maps into.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "Positive"
	LabelNeutral  SentimentLabel = "Neutral"
	LabelNegative SentimentLabel = "Negative"
)

// Sentiment pairs a label with a confidence score rounded to 4 decimals.
type Sentiment struct {
	Label SentimentLabel
	Score float64
}

// RefinedComment is one eligible comment after cleanup and scoring, headed
// for the relational store.
type RefinedComment struct {
	CommentID  string
	Body       string
	AuthorHash *string
	Score      int
	CreatedAt  *time.Time
	Sentiment  Sentiment
}

// RefinedDocument is the fully derived form of one raw document: cleaned
// post, scored comments and the aggregated comment verdict. The refinement
// stage writes exactly one relational post row per RawDocID.
type RefinedDocument struct {
	RawDocID       primitive.ObjectID
	Platform       string
	Keyword        string
	RequestID      int64
	PostID         string
	Title          string
	Body           string
	AuthorHash     *string
	Subreddit      string
	URL            string
	Score          int
	UpvoteRatio    float64
	TotalComments  int
	PostSentiment  Sentiment
	CreatedAt      time.Time
	Comments       []RefinedComment
	CommentSummary Sentiment
}
