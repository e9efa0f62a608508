package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sibtain012/BrandPulse-2.0/internal/config"
	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

const (
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIURL  = "https://oauth.reddit.com"

	platformTag = "reddit"
)

// Client searches Reddit with application-only OAuth. One client is reused
// for the whole process; the token refreshes itself when close to expiry.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	http         *http.Client

	authURL string
	apiURL  string

	token       string
	tokenExpiry time.Time
}

var _ ports.PostSource = (*Client)(nil)

// NewClient wires credentials from configuration.
func NewClient(cfg config.RedditConfig) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userAgent:    cfg.UserAgent,
		http:         &http.Client{Timeout: 30 * time.Second},
		authURL:      defaultAuthURL,
		apiURL:       defaultAPIURL,
	}
}

// Platform identifies this source inside the registry.
func (c *Client) Platform() string {
	return platformTag
}

// Search runs one bounded keyword search and fetches top-level comments for
// each hit. A post whose comment fetch fails becomes an item failure; the
// remaining posts still return.
func (c *Client) Search(ctx context.Context, q ports.SearchQuery) (ports.SearchResult, error) {
	if err := c.ensureToken(ctx); err != nil {
		return ports.SearchResult{}, fmt.Errorf("authenticate: %w", err)
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("%q nsfw:no", q.Keyword))
	params.Set("sort", "relevance")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("t", q.TimeFilter)
	params.Set("raw_json", "1")

	var listing thingListing
	if err := c.get(ctx, c.apiURL+"/search?"+params.Encode(), &listing); err != nil {
		return ports.SearchResult{}, fmt.Errorf("search %q: %w", q.Keyword, err)
	}

	result := ports.SearchResult{}
	for _, child := range listing.Data.Children {
		post := child.Data

		comments, err := c.fetchComments(ctx, post.ID, q.MaxComments)
		if err != nil {
			result.Failures = append(result.Failures, ports.ItemFailure{
				ExternalID: post.Name,
				Err:        fmt.Errorf("fetch comments: %w", err),
			})
			continue
		}

		result.Items = append(result.Items, domain.SourceItem{
			ExternalID: post.Name,
			Subreddit:  strings.TrimPrefix(post.SubredditPrefixed, "r/"),
			Over18:     post.Over18,
			Post: domain.RawPost{
				Name:        post.Name,
				Title:       post.Title,
				Selftext:    post.Selftext,
				Author:      post.Author,
				Score:       post.Score,
				UpvoteRatio: post.UpvoteRatio,
				NumComments: post.NumComments,
				CreatedUTC:  post.CreatedUTC,
				URL:         post.URL,
				Subreddit:   post.SubredditPrefixed,
			},
			Comments: comments,
		})
	}

	return result, nil
}

func (c *Client) fetchComments(ctx context.Context, postID string, limit int) ([]domain.RawComment, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("depth", "1")
	params.Set("sort", "top")
	params.Set("raw_json", "1")

	var pages []thingListing
	if err := c.get(ctx, c.apiURL+"/comments/"+postID+"?"+params.Encode(), &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, fmt.Errorf("unexpected comment payload for post %s", postID)
	}

	var comments []domain.RawComment
	for _, child := range pages[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		if len(comments) >= limit {
			break
		}
		comments = append(comments, domain.RawComment{
			ID:         child.Data.ID,
			Body:       child.Data.Body,
			Author:     child.Data.Author,
			Score:      child.Data.Score,
			CreatedUTC: child.Data.CreatedUTC,
		})
	}

	return comments, nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token endpoint returned empty token")
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

type thingListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data thing  `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type thing struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	Selftext          string  `json:"selftext"`
	Body              string  `json:"body"`
	Author            string  `json:"author"`
	Score             int     `json:"score"`
	UpvoteRatio       float64 `json:"upvote_ratio"`
	NumComments       int     `json:"num_comments"`
	CreatedUTC        float64 `json:"created_utc"`
	URL               string  `json:"url"`
	SubredditPrefixed string  `json:"subreddit_name_prefixed"`
	Over18            bool    `json:"over_18"`
}
