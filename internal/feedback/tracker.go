package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/permitindex/internal/config"
)

// maxErrorBody bounds how much of a tracker error response is read.
const maxErrorBody = 4 << 10

// Issue is what gets filed for one submission.
type Issue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// IssueResult identifies a created issue.
type IssueResult struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
}

// Tracker files issues. Implementations must be safe for concurrent use.
type Tracker interface {
	CreateIssue(ctx context.Context, issue Issue) (*IssueResult, error)
}

// GitHubTracker files issues through the GitHub REST API.
type GitHubTracker struct {
	client *http.Client
	apiURL string
	repo   string
	token  string
}

// NewGitHubTracker builds a tracker from proxy configuration. A nil client
// gets one with cfg.TrackerTimeout.
func NewGitHubTracker(cfg config.FeedbackConfig, client *http.Client) *GitHubTracker {
	if client == nil {
		client = &http.Client{Timeout: cfg.TrackerTimeout}
	}
	return &GitHubTracker{
		client: client,
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		repo:   cfg.Repo,
		token:  cfg.Token,
	}
}

// CreateIssue posts the issue. There is no retry; any non-201 answer becomes
// an UpstreamError carrying the tracker's status.
func (t *GitHubTracker) CreateIssue(ctx context.Context, issue Issue) (*IssueResult, error) {
	payload, err := json.Marshal(issue)
	if err != nil {
		return nil, fmt.Errorf("failed to encode issue: %w", err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/issues", t.apiURL, t.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "permitindex-feedback")

	resp, err := t.client.Do(req)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		return nil, &UpstreamError{Status: status, Message: "tracker unreachable", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(resp.Body, resp.Status)}
	}

	var result IssueResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "unreadable tracker response", Cause: err}
	}
	return &result, nil
}

// upstreamMessage extracts GitHub's "message" field, falling back to the status line.
func upstreamMessage(body io.Reader, status string) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return status
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return status
}
