package gitlabclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JetBrains/junie-gitlab/internal/config"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// Client wraps the GitLab API client with the read and write calls the
// pipeline needs. All methods are single-purpose so callers can depend on
// narrow interfaces.
type Client struct {
	client *gitlab.Client
	config *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.GitLab.Token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}

	api, err := gitlab.NewClient(cfg.GitLab.Token, gitlab.WithBaseURL(cfg.GitLab.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return &Client{
		client: api,
		config: cfg,
	}, nil
}

// IsForbidden reports whether err is a 403 from the GitLab API.
// The mention detector treats a 403 on an ancestor group as "no more
// visible ancestors" rather than a failure.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsNotFound reports whether err is a 404 from the GitLab API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == status
	}
	return false
}

func (c *Client) GetProject(ctx context.Context, projectID int) (*gitlab.Project, error) {
	project, _, err := c.client.Projects.GetProject(projectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", projectID, err)
	}
	return project, nil
}

func (c *Client) GetGroup(ctx context.Context, groupID int) (*gitlab.Group, error) {
	group, _, err := c.client.Groups.GetGroup(groupID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (c *Client) GetUser(ctx context.Context, userID int) (*gitlab.User, error) {
	user, _, err := c.client.Users.GetUser(userID, gitlab.GetUsersOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) GetIssue(ctx context.Context, projectID, issueIID int) (*gitlab.Issue, error) {
	issue, _, err := c.client.Issues.GetIssue(projectID, issueIID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %d in project %d: %w", issueIID, projectID, err)
	}
	return issue, nil
}

func (c *Client) GetMergeRequest(ctx context.Context, projectID, mergeRequestIID int) (*gitlab.MergeRequest, error) {
	mr, _, err := c.client.MergeRequests.GetMergeRequest(projectID, mergeRequestIID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get merge request %d in project %d: %w", mergeRequestIID, projectID, err)
	}
	return mr, nil
}

func (c *Client) ListMergeRequestCommits(ctx context.Context, projectID, mergeRequestIID int) ([]*gitlab.Commit, error) {
	var all []*gitlab.Commit
	opt := &gitlab.GetMergeRequestCommitsOptions{PerPage: 100}
	for {
		commits, resp, err := c.client.MergeRequests.GetMergeRequestCommits(projectID, mergeRequestIID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		all = append(all, commits...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func (c *Client) ListMergeRequestDiffs(ctx context.Context, projectID, mergeRequestIID int) ([]*gitlab.MergeRequestDiff, error) {
	var all []*gitlab.MergeRequestDiff
	opt := &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		diffs, resp, err := c.client.MergeRequests.ListMergeRequestDiffs(projectID, mergeRequestIID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		all = append(all, diffs...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func (c *Client) ListIssueDiscussions(ctx context.Context, projectID, issueIID int) ([]*gitlab.Discussion, error) {
	var all []*gitlab.Discussion
	opt := &gitlab.ListIssueDiscussionsOptions{PerPage: 100}
	for {
		discussions, resp, err := c.client.Discussions.ListIssueDiscussions(projectID, issueIID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		all = append(all, discussions...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func (c *Client) ListMergeRequestDiscussions(ctx context.Context, projectID, mergeRequestIID int) ([]*gitlab.Discussion, error) {
	var all []*gitlab.Discussion
	opt := &gitlab.ListMergeRequestDiscussionsOptions{PerPage: 100}
	for {
		discussions, resp, err := c.client.Discussions.ListMergeRequestDiscussions(projectID, mergeRequestIID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		all = append(all, discussions...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func (c *Client) ListProjectAccessTokens(ctx context.Context, projectID int) ([]*gitlab.ProjectAccessToken, error) {
	var all []*gitlab.ProjectAccessToken
	opt := &gitlab.ListProjectAccessTokensOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		tokens, resp, err := c.client.ProjectAccessTokens.ListProjectAccessTokens(projectID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		all = append(all, tokens...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func (c *Client) ListGroupAccessTokens(ctx context.Context, groupID int) ([]*gitlab.GroupAccessToken, error) {
	var all []*gitlab.GroupAccessToken
	opt := &gitlab.ListGroupAccessTokensOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		tokens, resp, err := c.client.GroupAccessTokens.ListGroupAccessTokens(groupID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		all = append(all, tokens...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func (c *Client) CreateIssueNote(ctx context.Context, projectID, issueIID int, body string) (*gitlab.Note, error) {
	note, _, err := c.client.Notes.CreateIssueNote(projectID, issueIID, &gitlab.CreateIssueNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create note on issue %d: %w", issueIID, err)
	}
	return note, nil
}

func (c *Client) CreateMergeRequestNote(ctx context.Context, projectID, mergeRequestIID int, body string) (*gitlab.Note, error) {
	note, _, err := c.client.Notes.CreateMergeRequestNote(projectID, mergeRequestIID, &gitlab.CreateMergeRequestNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create note on merge request %d: %w", mergeRequestIID, err)
	}
	return note, nil
}

func (c *Client) AddMergeRequestDiscussionNote(ctx context.Context, projectID, mergeRequestIID int, discussionID, body string) (*gitlab.Note, error) {
	note, _, err := c.client.Discussions.AddMergeRequestDiscussionNote(projectID, mergeRequestIID, discussionID, &gitlab.AddMergeRequestDiscussionNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to add note to discussion %s: %w", discussionID, err)
	}
	return note, nil
}

func (c *Client) CreateIssueAwardEmoji(ctx context.Context, projectID, issueIID int, name string) error {
	_, _, err := c.client.AwardEmoji.CreateIssueAwardEmoji(projectID, issueIID, &gitlab.CreateAwardEmojiOptions{
		Name: name,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to add %s reaction to issue %d: %w", name, issueIID, err)
	}
	return nil
}
