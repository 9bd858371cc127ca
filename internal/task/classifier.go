package task

import (
	"context"
	"fmt"

	"github.com/JetBrains/junie-gitlab/internal/config"
	"github.com/JetBrains/junie-gitlab/pkg/models"

	"github.com/qiniu/x/xlog"
)

// Fetcher supplies the structured context for a classified event.
type Fetcher interface {
	FetchIssueData(ctx context.Context, projectID, issueIID int) (*models.FetchedData, error)
	FetchMergeRequestData(ctx context.Context, projectID, mergeRequestIID int) (*models.FetchedData, error)
}

// MentionDetector decides whether a comment addresses the agent.
type MentionDetector interface {
	IsMentioned(ctx context.Context, projectID int, text, tagPattern string) (bool, error)
}

// Classifier maps an event context into exactly one task variant, or a
// NoAction value with the reason. Single pass, no retries: a failed primary
// fetch aborts the run before anything was posted.
type Classifier struct {
	config   *config.Config
	fetcher  Fetcher
	detector MentionDetector
}

func NewClassifier(cfg *config.Config, fetcher Fetcher, detector MentionDetector) *Classifier {
	return &Classifier{
		config:   cfg,
		fetcher:  fetcher,
		detector: detector,
	}
}

// Extract classifies the event. The three context variants are matched
// exhaustively; any other type is a programming error, never ignored.
func (c *Classifier) Extract(ctx context.Context, event models.GitLabContext) (Result, error) {
	switch e := event.(type) {
	case *models.IssueCommentContext:
		return c.extractIssueComment(ctx, e)
	case *models.MergeRequestCommentContext:
		return c.extractMergeRequestComment(ctx, e)
	case *models.MergeRequestLifecycleContext:
		return c.extractMergeRequestLifecycle(ctx, e)
	default:
		return nil, fmt.Errorf("unsupported event context type %T", event)
	}
}

func (c *Classifier) extractIssueComment(ctx context.Context, event *models.IssueCommentContext) (Result, error) {
	xl := xlog.NewWith(ctx)

	mentioned, err := c.detector.IsMentioned(ctx, event.ProjectID, event.CommentBody, c.config.Agent.TagPattern)
	if err != nil {
		return nil, fmt.Errorf("mention detection failed: %w", err)
	}
	if !mentioned {
		return NoAction{Reason: "issue comment does not mention the agent"}, nil
	}

	xl.Infof("Issue comment %d mentions the agent, fetching issue %d", event.CommentID, event.IssueIID)
	data, err := c.fetcher.FetchIssueData(ctx, event.ProjectID, event.IssueIID)
	if err != nil {
		return nil, err
	}

	return &IssueTask{Event: event, Data: data}, nil
}

func (c *Classifier) extractMergeRequestComment(ctx context.Context, event *models.MergeRequestCommentContext) (Result, error) {
	xl := xlog.NewWith(ctx)

	mentioned, err := c.detector.IsMentioned(ctx, event.ProjectID, event.CommentBody, c.config.Agent.TagPattern)
	if err != nil {
		return nil, fmt.Errorf("mention detection failed: %w", err)
	}
	if !mentioned {
		return NoAction{Reason: "merge request comment does not mention the agent"}, nil
	}

	xl.Infof("Merge request comment %d mentions the agent, fetching merge request %d", event.CommentID, event.MergeRequestIID)
	data, err := c.fetcher.FetchMergeRequestData(ctx, event.ProjectID, event.MergeRequestIID)
	if err != nil {
		return nil, err
	}

	return &MergeRequestCommentTask{Event: event, Data: data}, nil
}

func (c *Classifier) extractMergeRequestLifecycle(ctx context.Context, event *models.MergeRequestLifecycleContext) (Result, error) {
	xl := xlog.NewWith(ctx)

	// lifecycle events are noisy: only act when the operator configured an
	// explicit instruction for this run
	if event.CustomInstruction == "" {
		return NoAction{
			Reason: fmt.Sprintf("no custom instruction configured for merge request %s event", event.Action),
		}, nil
	}

	xl.Infof("Merge request %d %s event with custom instruction, fetching data", event.MergeRequestIID, event.Action)
	data, err := c.fetcher.FetchMergeRequestData(ctx, event.ProjectID, event.MergeRequestIID)
	if err != nil {
		return nil, err
	}

	return &MergeRequestLifecycleTask{Event: event, Data: data}, nil
}
