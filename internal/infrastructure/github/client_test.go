package github

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v69/github"

	"github.com/felixgeelhaar/issuesync/pkg/retry"
)

func TestClassify_RateLimit(t *testing.T) {
	err := classify(&github.RateLimitError{
		Rate: github.Rate{Reset: github.Timestamp{Time: time.Now().Add(10 * time.Second)}},
	})

	var te *retry.TransientError
	if !errors.As(err, &te) {
		t.Fatalf("rate limit must classify transient, got %T", err)
	}
	if te.RetryAfter <= 0 || te.RetryAfter > 10*time.Second {
		t.Errorf("RetryAfter must come from the reset time, got %v", te.RetryAfter)
	}
}

func TestClassify_AbuseDetection(t *testing.T) {
	wait := 42 * time.Second
	err := classify(&github.AbuseRateLimitError{RetryAfter: &wait})

	var te *retry.TransientError
	if !errors.As(err, &te) {
		t.Fatalf("abuse detection must classify transient, got %T", err)
	}
	if te.RetryAfter != wait {
		t.Errorf("RetryAfter = %v, want %v", te.RetryAfter, wait)
	}
}

func TestClassify_PermanentErrorsPassThrough(t *testing.T) {
	permanent := errors.New("401 bad credentials")
	if got := classify(permanent); got != permanent {
		t.Errorf("permanent errors must pass through unchanged, got %v", got)
	}
	if retry.IsTransient(classify(permanent)) {
		t.Error("permanent errors must not be retried")
	}
}

func TestToRecord(t *testing.T) {
	issue := &github.Issue{
		Number:    github.Ptr(17),
		Title:     github.Ptr("Fix timeouts"),
		Body:      github.Ptr("body <!-- issuesync:slug=api-timeouts -->"),
		State:     github.Ptr("open"),
		Labels:    []*github.Label{{Name: github.Ptr("bug")}, {Name: github.Ptr("backend")}},
		Assignees: []*github.User{{Login: github.Ptr("mona")}},
		Milestone: &github.Milestone{Title: github.Ptr("v1.2")},
	}

	r := toRecord(issue)
	if r.ID != "17" || r.Title != "Fix timeouts" || r.Milestone != "v1.2" || r.State != "open" {
		t.Errorf("unexpected record: %+v", r)
	}
	if len(r.Labels) != 2 || len(r.Assignees) != 1 {
		t.Errorf("labels/assignees lost: %+v", r)
	}
}
