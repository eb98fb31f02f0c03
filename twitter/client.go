// Package twitter is a thin client for the X API v2 endpoints the bot
// needs: posting tweets and threads, reading the mention timeline and
// fetching public engagement metrics.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
)

const (
	// PostMaxLen is the platform's single-post character limit.
	PostMaxLen = 280

	// MentionsFetchMin and MentionsFetchMax bound the max_results
	// parameter accepted by the mention timeline endpoint.
	MentionsFetchMin = 5
	MentionsFetchMax = 100
)

const defaultBaseURL = "https://api.twitter.com/2"

// threadPostDelay spaces out the posts of a thread to stay clear of
// burst rate limits.
const threadPostDelay = time.Second

// Client calls the X API v2 with OAuth 1.0a user-context credentials.
type Client struct {
	http    *http.Client
	baseURL string
	userID  string
}

// NewClient builds a client from OAuth 1.0a app and access credentials.
func NewClient(consumerKey, consumerSecret, accessToken, accessSecret string) *Client {
	cfg := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	return &Client{
		http:    cfg.Client(oauth1.NoContext, token),
		baseURL: defaultBaseURL,
	}
}

type tweetRequest struct {
	Text  string    `json:"text"`
	Reply *replyRef `json:"reply,omitempty"`
}

type replyRef struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// PostTweet publishes a single tweet and returns its platform-assigned id.
func (c *Client) PostTweet(ctx context.Context, text string) (string, error) {
	return c.createTweet(ctx, tweetRequest{Text: text})
}

// PostReply publishes text as a reply to the tweet with parentID.
func (c *Client) PostReply(ctx context.Context, parentID, text string) (string, error) {
	return c.createTweet(ctx, tweetRequest{
		Text:  text,
		Reply: &replyRef{InReplyToTweetID: parentID},
	})
}

// PostThread publishes the texts as a chain where each post replies to the
// previous one. It returns the ids in posting order; the first id is the
// thread root. A failure on any post fails the whole thread.
func (c *Client) PostThread(ctx context.Context, texts []string) ([]string, error) {
	ids := make([]string, 0, len(texts))
	var previous string
	for i, text := range texts {
		req := tweetRequest{Text: text}
		if previous != "" {
			req.Reply = &replyRef{InReplyToTweetID: previous}
		}
		id, err := c.createTweet(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to post thread part %d/%d: %w", i+1, len(texts), err)
		}
		ids = append(ids, id)
		previous = id

		if i < len(texts)-1 {
			select {
			case <-time.After(threadPostDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return ids, nil
}

func (c *Client) createTweet(ctx context.Context, req tweetRequest) (string, error) {
	var resp tweetResponse
	if err := c.doJSON(ctx, http.MethodPost, "/tweets", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("tweet response carried no id")
	}
	return resp.Data.ID, nil
}

type mentionsResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NewestID    string `json:"newest_id"`
	} `json:"meta"`
}

// FetchMentions returns mentions of the authenticated account newer than
// sinceID (all recent mentions when sinceID is empty), newest first as the
// platform returns them. limit is clamped to the endpoint's accepted range.
// The account's own tweets are filtered out.
func (c *Client) FetchMentions(ctx context.Context, sinceID string, limit int) ([]models.Mention, error) {
	userID, err := c.authenticatedUserID(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("max_results", strconv.Itoa(ClampFetchLimit(limit)))
	query.Set("tweet.fields", "author_id,created_at")
	query.Set("expansions", "author_id")
	query.Set("user.fields", "username")
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}

	var resp mentionsResponse
	path := fmt.Sprintf("/users/%s/mentions", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}

	usernames := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		usernames[u.ID] = u.Username
	}

	var mentions []models.Mention
	for _, t := range resp.Data {
		if t.AuthorID == userID {
			continue
		}
		createdAt, _ := time.Parse(time.RFC3339, t.CreatedAt)
		mentions = append(mentions, models.Mention{
			ID:             t.ID,
			Text:           t.Text,
			AuthorID:       t.AuthorID,
			AuthorUsername: usernames[t.AuthorID],
			CreatedAt:      createdAt,
		})
	}
	return mentions, nil
}

type engagementResponse struct {
	Data struct {
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// FetchEngagement fetches the public engagement counters for one tweet.
func (c *Client) FetchEngagement(ctx context.Context, tweetID string) (models.Engagement, error) {
	query := url.Values{}
	query.Set("tweet.fields", "public_metrics")

	var resp engagementResponse
	if err := c.doJSON(ctx, http.MethodGet, "/tweets/"+tweetID, query, nil, &resp); err != nil {
		return models.Engagement{}, err
	}
	m := resp.Data.PublicMetrics
	return models.Engagement{Likes: m.LikeCount, Reposts: m.RetweetCount, Replies: m.ReplyCount}, nil
}

type meResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

func (c *Client) authenticatedUserID(ctx context.Context) (string, error) {
	if c.userID != "" {
		return c.userID, nil
	}
	var resp meResponse
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to resolve authenticated user: %w", err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("users/me response carried no id")
	}
	c.userID = resp.Data.ID
	return c.userID, nil
}

// ClampFetchLimit bounds a requested mention count to the range the
// mention timeline endpoint accepts.
func ClampFetchLimit(limit int) int {
	if limit < MentionsFetchMin {
		return MentionsFetchMin
	}
	if limit > MentionsFetchMax {
		return MentionsFetchMax
	}
	return limit
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Title != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Title, apiErr.Detail)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}
