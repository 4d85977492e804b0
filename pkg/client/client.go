package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/service"
)

// Client is a thin HTTP client for the API, used by the CLI.
type Client struct {
	baseURL string
	token   string
	userID  string
	http    *http.Client
}

// NewClient creates a client for the given server. token is sent as a bearer
// token when set; userID is the insecure-mode identity header for local
// development.
func NewClient(baseURL, token, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		userID:  userID,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("malformed response (%s): %v", res.Status, err)
	}

	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%s: %s", res.Status, env.Error)
		}
		return fmt.Errorf("unexpected status: %s", res.Status)
	}

	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *Client) CreatePost(ctx context.Context, fields model.PostFields) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodPost, "/v1/posts", fields, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodGet, "/v1/posts/"+postID, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) ListPosts(ctx context.Context, author string) ([]*model.Post, error) {
	path := "/v1/posts"
	if author != "" {
		path += "?author=" + author
	}
	var posts []*model.Post
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/posts/"+postID, nil, nil)
}

func (c *Client) CreateVersion(ctx context.Context, postID string, fields model.PostFields) (*model.PostVersion, error) {
	var version model.PostVersion
	if err := c.do(ctx, http.MethodPost, "/v1/posts/"+postID+"/versions", fields, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *Client) GetVersionHistory(ctx context.Context, postID string) ([]*model.PostVersion, error) {
	var versions []*model.PostVersion
	if err := c.do(ctx, http.MethodGet, "/v1/posts/"+postID+"/versions", nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func (c *Client) GetLatestVersion(ctx context.Context, postID string) (*model.PostVersion, error) {
	var version model.PostVersion
	if err := c.do(ctx, http.MethodGet, "/v1/posts/"+postID+"/versions/latest", nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *Client) RollbackToVersion(ctx context.Context, postID, versionID string) (*model.PostVersion, error) {
	body := map[string]string{"version_id": versionID}
	var version model.PostVersion
	if err := c.do(ctx, http.MethodPost, "/v1/posts/"+postID+"/rollback", body, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *Client) DiffVersions(ctx context.Context, postID, fromID, toID string) (*service.VersionDiff, error) {
	path := fmt.Sprintf("/v1/posts/%s/diff?from=%s&to=%s", postID, fromID, toID)
	var diff service.VersionDiff
	if err := c.do(ctx, http.MethodGet, path, nil, &diff); err != nil {
		return nil, err
	}
	return &diff, nil
}

func (c *Client) PublishNow(ctx context.Context, postID string, platforms []string) (*service.PublishResult, error) {
	body := map[string][]string{"platforms": platforms}
	var result service.PublishResult
	if err := c.do(ctx, http.MethodPost, "/v1/posts/"+postID+"/publish", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SchedulePost(ctx context.Context, postID string, scheduledFor time.Time) (*model.PublishingQueueItem, error) {
	body := map[string]time.Time{"scheduled_for": scheduledFor}
	var item model.PublishingQueueItem
	if err := c.do(ctx, http.MethodPost, "/v1/posts/"+postID+"/schedule", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) CancelScheduledPost(ctx context.Context, queueID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/queue/"+queueID, nil, nil)
}
