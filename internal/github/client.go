package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/rohankatakam/depscan/internal/models"
	"golang.org/x/time/rate"
)

// Client wraps the GitHub API client with rate limiting
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
}

// Option configures a Client
type Option func(*Client) error

// WithBaseURL points the client at a GitHub Enterprise or test server
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
		c.client.BaseURL = u
		return nil
	}
}

// NewClient creates a GitHub client allowing rateLimit requests per second.
// An empty token makes unauthenticated requests.
func NewClient(token string, rateLimit float64, opts ...Option) (*Client, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if rateLimit <= 0 {
		rateLimit = 10
	}

	c := &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ListOptions filter an organisation listing
type ListOptions struct {
	PrivateOnly     bool
	IncludeArchived bool
}

// ListOrgRepos returns every repository of org, sorted by name
func (c *Client) ListOrgRepos(ctx context.Context, org string, opts ListOptions) ([]models.Repository, error) {
	listType := "all"
	if opts.PrivateOnly {
		listType = "private"
	}
	req := &github.RepositoryListByOrgOptions{
		Type:        listType,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repos []models.Repository
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		page, resp, err := c.client.Repositories.ListByOrg(ctx, org, req)
		if err != nil {
			return nil, wrapAPIError(fmt.Sprintf("list repositories of %s", org), err)
		}

		for _, r := range page {
			if r.GetArchived() && !opts.IncludeArchived {
				continue
			}
			if opts.PrivateOnly && !r.GetPrivate() {
				continue
			}
			repos = append(repos, convertRepository(r))
		}

		if resp.NextPage == 0 {
			break
		}
		req.Page = resp.NextPage
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	return repos, nil
}

// AuthenticatedUser returns the login the token belongs to
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", wrapAPIError("fetch authenticated user", err)
	}
	return user.GetLogin(), nil
}

func convertRepository(r *github.Repository) models.Repository {
	return models.Repository{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		CloneURL:      r.GetCloneURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		Archived:      r.GetArchived(),
		Language:      r.GetLanguage(),
		Size:          r.GetSize(),
		PushedAt:      r.GetPushedAt().Time,
	}
}

func wrapAPIError(op string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: rate limit exceeded, resets at %s: %w", op, rateErr.Rate.Reset.Time.Format("15:04:05"), err)
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return fmt.Errorf("%s: github returned %d: %w", op, respErr.Response.StatusCode, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
