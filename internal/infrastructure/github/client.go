// Package github adapts the GitHub Issues API to the tracker.Client
// boundary. Rate-limit and abuse-detection responses are classified as
// transient so the retry layer can honor the server-advised wait.
package github

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
	"github.com/felixgeelhaar/issuesync/pkg/retry"
)

const perPage = 100

// Client implements tracker.Client against one repository.
type Client struct {
	gh    *github.Client
	owner string
	repo  string

	mu         sync.Mutex
	milestones map[string]int
}

// NewClient builds an authenticated client for owner/repo.
func NewClient(ctx context.Context, token, owner, repo string) *Client {
	tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return &Client{gh: github.NewClient(tc), owner: owner, repo: repo}
}

func (c *Client) List(ctx context.Context) ([]tracker.Record, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var records []tracker.Record
	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, classify(err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			records = append(records, toRecord(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return records, nil
}

func (c *Client) Create(ctx context.Context, draft tracker.Draft) (tracker.Record, error) {
	req, err := c.request(ctx, draft)
	if err != nil {
		return tracker.Record{}, err
	}

	issue, _, err := c.gh.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return tracker.Record{}, classify(err)
	}

	// The API cannot create a closed issue; close in a follow-up edit.
	if draft.State == tracker.StateClosed {
		issue, _, err = c.gh.Issues.Edit(ctx, c.owner, c.repo, issue.GetNumber(), &github.IssueRequest{
			State: github.Ptr(tracker.StateClosed),
		})
		if err != nil {
			return tracker.Record{}, classify(err)
		}
	}
	return toRecord(issue), nil
}

func (c *Client) Update(ctx context.Context, id string, draft tracker.Draft) (tracker.Record, error) {
	number, err := strconv.Atoi(id)
	if err != nil {
		return tracker.Record{}, fmt.Errorf("invalid issue identifier %q: %w", id, err)
	}

	if draft.Milestone == "" {
		// IssueRequest cannot express "milestone": null; clear it with a
		// raw PATCH before the typed edit.
		if err := c.clearMilestone(ctx, number); err != nil {
			return tracker.Record{}, err
		}
	}

	req, err := c.request(ctx, draft)
	if err != nil {
		return tracker.Record{}, err
	}
	issue, _, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, req)
	if err != nil {
		return tracker.Record{}, classify(err)
	}
	return toRecord(issue), nil
}

func (c *Client) Close(ctx context.Context, id string) error {
	number, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid issue identifier %q: %w", id, err)
	}
	_, _, err = c.gh.Issues.Edit(ctx, c.owner, c.repo, number, &github.IssueRequest{
		State: github.Ptr(tracker.StateClosed),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, draft tracker.Draft) (*github.IssueRequest, error) {
	req := &github.IssueRequest{
		Title:     github.Ptr(draft.Title),
		Body:      github.Ptr(draft.Body),
		Labels:    &draft.Labels,
		Assignees: &draft.Assignees,
	}
	if draft.State != "" {
		req.State = github.Ptr(draft.State)
	}
	if draft.Milestone != "" {
		number, err := c.resolveMilestone(ctx, draft.Milestone)
		if err != nil {
			return nil, err
		}
		req.Milestone = github.Ptr(number)
	}
	return req, nil
}

// resolveMilestone maps a milestone title to its number, caching the listing
// for the run.
func (c *Client) resolveMilestone(ctx context.Context, title string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.milestones == nil {
		c.milestones = map[string]int{}
		opts := &github.MilestoneListOptions{
			State:       "all",
			ListOptions: github.ListOptions{PerPage: perPage},
		}
		for {
			milestones, resp, err := c.gh.Issues.ListMilestones(ctx, c.owner, c.repo, opts)
			if err != nil {
				c.milestones = nil
				return 0, classify(err)
			}
			for _, m := range milestones {
				c.milestones[m.GetTitle()] = m.GetNumber()
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}

	number, ok := c.milestones[title]
	if !ok {
		return 0, fmt.Errorf("milestone %q does not exist in %s/%s", title, c.owner, c.repo)
	}
	return number, nil
}

func (c *Client) clearMilestone(ctx context.Context, number int) error {
	u := fmt.Sprintf("repos/%s/%s/issues/%d", c.owner, c.repo, number)
	req, err := c.gh.NewRequest("PATCH", u, map[string]any{"milestone": nil})
	if err != nil {
		return err
	}
	if _, err := c.gh.Do(ctx, req, nil); err != nil {
		return classify(err)
	}
	return nil
}

func toRecord(issue *github.Issue) tracker.Record {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	assignees := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, a.GetLogin())
	}
	return tracker.Record{
		ID:        strconv.Itoa(issue.GetNumber()),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Labels:    labels,
		Assignees: assignees,
		Milestone: issue.GetMilestone().GetTitle(),
		State:     issue.GetState(),
	}
}

// classify wraps rate-limit and abuse-detection responses as transient so
// the retry layer backs off; everything else propagates unchanged and is
// never retried.
func classify(err error) error {
	switch e := err.(type) {
	case *github.RateLimitError:
		wait := time.Until(e.Rate.Reset.Time)
		if wait < 0 {
			wait = 0
		}
		return &retry.TransientError{Err: err, RetryAfter: wait}
	case *github.AbuseRateLimitError:
		return &retry.TransientError{Err: err, RetryAfter: e.GetRetryAfter()}
	default:
		return err
	}
}
