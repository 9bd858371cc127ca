package gitlabclient

import (
	"context"
	"sync"

	"github.com/JetBrains/junie-gitlab/pkg/models"

	"github.com/qiniu/x/xlog"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// Fetcher assembles the context data backing one pipeline run. The primary
// entity read is fatal when it fails; secondary reads degrade to absent
// sections so a half-empty merge request still produces a usable prompt.
type Fetcher struct {
	client *Client
}

func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchIssueData loads an issue and its discussions.
func (f *Fetcher) FetchIssueData(ctx context.Context, projectID, issueIID int) (*models.FetchedData, error) {
	xl := xlog.NewWith(ctx)

	var (
		wg          sync.WaitGroup
		issue       *gitlab.Issue
		issueErr    error
		discussions []*gitlab.Discussion
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		issue, issueErr = f.client.GetIssue(ctx, projectID, issueIID)
	}()
	go func() {
		defer wg.Done()
		var err error
		discussions, err = f.client.ListIssueDiscussions(ctx, projectID, issueIID)
		if err != nil {
			xl.Warnf("Failed to list discussions for issue %d: %v", issueIID, err)
			discussions = nil
		}
	}()
	wg.Wait()

	if issueErr != nil {
		return nil, issueErr
	}

	xl.Infof("Fetched issue %d with %d discussions", issueIID, len(discussions))
	return &models.FetchedData{
		Issue:       issue,
		Discussions: discussions,
	}, nil
}

// FetchMergeRequestData loads a merge request together with its commits,
// discussions and diffs. The four reads are independent and issued
// concurrently.
func (f *Fetcher) FetchMergeRequestData(ctx context.Context, projectID, mergeRequestIID int) (*models.FetchedData, error) {
	xl := xlog.NewWith(ctx)

	var (
		wg          sync.WaitGroup
		mr          *gitlab.MergeRequest
		mrErr       error
		commits     []*gitlab.Commit
		discussions []*gitlab.Discussion
		changes     []*gitlab.MergeRequestDiff
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		mr, mrErr = f.client.GetMergeRequest(ctx, projectID, mergeRequestIID)
	}()
	go func() {
		defer wg.Done()
		var err error
		commits, err = f.client.ListMergeRequestCommits(ctx, projectID, mergeRequestIID)
		if err != nil {
			xl.Warnf("Failed to list commits for merge request %d: %v", mergeRequestIID, err)
			commits = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		discussions, err = f.client.ListMergeRequestDiscussions(ctx, projectID, mergeRequestIID)
		if err != nil {
			xl.Warnf("Failed to list discussions for merge request %d: %v", mergeRequestIID, err)
			discussions = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		changes, err = f.client.ListMergeRequestDiffs(ctx, projectID, mergeRequestIID)
		if err != nil {
			xl.Warnf("Failed to list diffs for merge request %d: %v", mergeRequestIID, err)
			changes = nil
		}
	}()
	wg.Wait()

	if mrErr != nil {
		return nil, mrErr
	}

	xl.Infof("Fetched merge request %d: %d commits, %d discussions, %d changed files",
		mergeRequestIID, len(commits), len(discussions), len(changes))
	return &models.FetchedData{
		MergeRequest: mr,
		Commits:      commits,
		Discussions:  discussions,
		Changes:      changes,
	}, nil
}
