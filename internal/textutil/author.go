package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
)

const minCommentWords = 5

// Sentinel author names that stand for deleted or automated accounts.
var sentinelAuthors = map[string]struct{}{
	"[deleted]":     {},
	"automoderator": {},
}

// HashAuthor anonymizes an author name as a SHA-256 hex digest. Empty and
// sentinel authors yield nil so no fake identity reaches the warehouse.
func HashAuthor(author string) *string {
	if author == "" {
		return nil
	}
	if _, ok := sentinelAuthors[strings.ToLower(author)]; ok {
		return nil
	}

	sum := sha256.Sum256([]byte(author))
	digest := hex.EncodeToString(sum[:])
	return &digest
}

// EligibleComment filters comments worth scoring: non-empty body, not a
// sentinel author, at least five words.
func EligibleComment(c domain.RawComment) bool {
	if strings.TrimSpace(c.Body) == "" {
		return false
	}
	if _, ok := sentinelAuthors[strings.ToLower(c.Author)]; ok {
		return false
	}
	return WordCount(c.Body) >= minCommentWords
}
