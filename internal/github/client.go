package github

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/flanksource/commons/http"

	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/logger"
)

const (
	DefaultBaseURL = "https://api.github.com"
	perPage        = 100
)

// Client reads commits from the GitHub REST API. Repositories are named
// owner/name.
type Client struct {
	http   *http.Client
	logger *logger.Logger
}

// NewClient creates a GitHub client. An empty baseURL targets api.github.com.
func NewClient(baseURL, token string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := http.NewClient().
		BaseURL(strings.TrimRight(baseURL, "/")).
		Header("Accept", "application/vnd.github+json").
		Header("X-GitHub-Api-Version", "2022-11-28")
	if token != "" {
		client = client.Header("Authorization", "Bearer "+token)
	}
	return &Client{http: client, logger: log}
}

// REST response types (snake_case JSON)

type restCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  *struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
	Files []restFile `json:"files"`
}

type restFile struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename"`
	Status           string `json:"status"`
	Patch            string `json:"patch"`
}

func (c restCommit) toCommit() domain.Commit {
	commit := domain.Commit{
		SHA:     c.SHA,
		Message: c.Commit.Message,
	}
	if a := c.Commit.Author; a != nil {
		commit.AuthorName = a.Name
		commit.AuthorEmail = a.Email
		commit.Timestamp = a.Date
	}
	if c.Author != nil {
		commit.AuthorLogin = c.Author.Login
	}
	return commit
}

// ListCommits returns the commits on branch committed in [since, until),
// oldest first.
func (c *Client) ListCommits(ctx context.Context, repo, branch string, since, until time.Time) ([]domain.Commit, error) {
	query := url.Values{}
	if branch != "" {
		query.Set("sha", branch)
	}
	query.Set("since", since.UTC().Format(time.RFC3339))
	query.Set("until", until.Add(-time.Second).UTC().Format(time.RFC3339))
	query.Set("per_page", strconv.Itoa(perPage))

	var commits []domain.Commit
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		endpoint := fmt.Sprintf("/repos/%s/commits?%s", repo, query.Encode())

		var batch []restCommit
		if err := c.get(ctx, endpoint, &batch); err != nil {
			return nil, err
		}
		for _, rc := range batch {
			commits = append(commits, rc.toCommit())
		}
		if len(batch) < perPage {
			break
		}
	}

	// the API lists newest first
	slices.Reverse(commits)
	c.logger.Debugf("listed %d commits in %s", len(commits), repo)
	return commits, nil
}

// LoadFiles fills commit.Files from the commit detail endpoint, following
// its file pagination.
func (c *Client) LoadFiles(ctx context.Context, repo string, commit *domain.Commit) error {
	var files []domain.ChangedFile
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("/repos/%s/commits/%s?per_page=%d&page=%d", repo, commit.SHA, perPage, page)

		var detail restCommit
		if err := c.get(ctx, endpoint, &detail); err != nil {
			return err
		}
		for _, f := range detail.Files {
			files = append(files, domain.ChangedFile{
				Filename:         f.Filename,
				PreviousFilename: f.PreviousFilename,
				Status:           domain.ChangeType(f.Status),
				Patch:            f.Patch,
			})
		}
		if len(detail.Files) < perPage {
			break
		}
	}

	commit.Files = files
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, into any) error {
	c.logger.Debugf("GET %s", endpoint)
	resp, err := c.http.R(ctx).Get(endpoint)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	if !resp.IsOK() {
		body, _ := resp.AsString()
		return fmt.Errorf("GET %s: status %d: %s", endpoint, resp.StatusCode, body)
	}
	if err := resp.Into(into); err != nil {
		return fmt.Errorf("parse %s response: %w", endpoint, err)
	}
	return nil
}
