package reddit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sibtain012/BrandPulse-2.0/internal/config"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if got := r.Header.Get("User-Agent"); got != "brandpulse-test" {
			t.Errorf("user agent = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok123",
			"expires_in":   3600,
		})
	})

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("authorization = %q", got)
		}
		q := r.URL.Query().Get("q")
		if !strings.Contains(q, "nsfw:no") {
			t.Errorf("query %q missing nsfw filter", q)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"children": []map[string]any{
					{"kind": "t3", "data": map[string]any{
						"id":                      "abc",
						"name":                    "t3_abc",
						"title":                   "Post title",
						"author":                  "author1",
						"score":                   10,
						"subreddit_name_prefixed": "r/golang",
					}},
					{"kind": "t3", "data": map[string]any{
						"id":   "bad",
						"name": "t3_bad",
					}},
				},
			},
		})
	})

	mux.HandleFunc("/comments/abc", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{},
			{"data": map[string]any{
				"children": []map[string]any{
					{"kind": "t1", "data": map[string]any{"id": "c1", "body": "first comment", "author": "u1", "score": 3}},
					{"kind": "more", "data": map[string]any{"id": "c2"}},
					{"kind": "t1", "data": map[string]any{"id": "c3", "body": "second comment", "author": "u2"}},
				},
			}},
		})
	})

	mux.HandleFunc("/comments/bad", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(config.RedditConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		UserAgent:    "brandpulse-test",
	})
	client.authURL = srv.URL + "/api/v1/access_token"
	client.apiURL = srv.URL

	return client
}

func TestSearch(t *testing.T) {
	t.Parallel()

	client := testClient(t)

	result, err := client.Search(context.Background(), ports.SearchQuery{
		Keyword:     "golang",
		Limit:       5,
		TimeFilter:  "month",
		MaxComments: 10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(result.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(result.Items))
	}
	item := result.Items[0]
	if item.ExternalID != "t3_abc" {
		t.Fatalf("external id = %q", item.ExternalID)
	}
	if item.Subreddit != "golang" {
		t.Fatalf("subreddit = %q, prefix not stripped", item.Subreddit)
	}
	if item.Post.Subreddit != "r/golang" {
		t.Fatalf("raw subreddit = %q, prefixed form expected", item.Post.Subreddit)
	}

	// The "more" stub is filtered out, only t1 children survive.
	if len(item.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(item.Comments))
	}
	if item.Comments[0].ID != "c1" || item.Comments[1].ID != "c3" {
		t.Fatalf("comment ids = %s, %s", item.Comments[0].ID, item.Comments[1].ID)
	}

	// The post whose comments endpoint fails becomes an item failure.
	if len(result.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(result.Failures))
	}
	if result.Failures[0].ExternalID != "t3_bad" {
		t.Fatalf("failure id = %q", result.Failures[0].ExternalID)
	}
}

func TestSearchCommentLimit(t *testing.T) {
	t.Parallel()

	client := testClient(t)

	result, err := client.Search(context.Background(), ports.SearchQuery{
		Keyword:     "golang",
		Limit:       5,
		TimeFilter:  "month",
		MaxComments: 1,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(result.Items))
	}
	if got := len(result.Items[0].Comments); got != 1 {
		t.Fatalf("comments = %d, want capped at 1", got)
	}
}

func TestTokenReuse(t *testing.T) {
	t.Parallel()

	var tokenCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, _ *http.Request) {
		tokenCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(config.RedditConfig{ClientID: "id", ClientSecret: "secret", UserAgent: "ua"})
	client.authURL = srv.URL + "/api/v1/access_token"
	client.apiURL = srv.URL

	for range 3 {
		if _, err := client.Search(context.Background(), ports.SearchQuery{Keyword: "x", Limit: 1, TimeFilter: "month", MaxComments: 1}); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("token requests = %d, want 1", tokenCalls)
	}
}

func TestSearchAuthFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.RedditConfig{ClientID: "id", ClientSecret: "bad", UserAgent: "ua"})
	client.authURL = srv.URL
	client.apiURL = srv.URL

	if _, err := client.Search(context.Background(), ports.SearchQuery{Keyword: "x", Limit: 1}); err == nil {
		t.Fatal("expected error on rejected credentials")
	}
}
