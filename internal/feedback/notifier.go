package feedback

import (
	"context"
	"fmt"

	"github.com/JetBrains/junie-gitlab/internal/task"

	"github.com/qiniu/x/xlog"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// Poster is the write-only slice of the GitLab client used for feedback.
type Poster interface {
	CreateIssueNote(ctx context.Context, projectID, issueIID int, body string) (*gitlab.Note, error)
	CreateMergeRequestNote(ctx context.Context, projectID, mergeRequestIID int, body string) (*gitlab.Note, error)
	AddMergeRequestDiscussionNote(ctx context.Context, projectID, mergeRequestIID int, discussionID, body string) (*gitlab.Note, error)
	CreateIssueAwardEmoji(ctx context.Context, projectID, issueIID int, name string) error
}

const startReaction = "thumbsup"

// Notifier posts start and finish notifications for a classified task.
// The wording comes from the task itself; the variant only decides where
// the note lands: issue, merge request, or a specific discussion thread.
type Notifier struct {
	client Poster
}

func NewNotifier(client Poster) *Notifier {
	return &Notifier{client: client}
}

// NotifyStart posts the acknowledgment before the agent runs. Issue
// comments additionally get a reaction on the issue; a failed reaction is
// logged but does not fail the run.
func (n *Notifier) NotifyStart(ctx context.Context, t task.Task) error {
	xl := xlog.NewWith(ctx)

	switch v := t.(type) {
	case *task.IssueTask:
		if _, err := n.client.CreateIssueNote(ctx, v.Event.ProjectID, v.Event.IssueIID, t.StartMessage()); err != nil {
			return err
		}
		if err := n.client.CreateIssueAwardEmoji(ctx, v.Event.ProjectID, v.Event.IssueIID, startReaction); err != nil {
			xl.Warnf("Failed to add reaction on issue %d: %v", v.Event.IssueIID, err)
		}
		return nil
	case *task.MergeRequestCommentTask:
		return n.postToMergeRequest(ctx, v.Event.ProjectID, v.Event.MergeRequestIID, v.Event.DiscussionID, t.StartMessage())
	case *task.MergeRequestLifecycleTask:
		_, err := n.client.CreateMergeRequestNote(ctx, v.Event.ProjectID, v.Event.MergeRequestIID, t.StartMessage())
		return err
	default:
		return fmt.Errorf("unsupported task variant %T", t)
	}
}

// NotifyFinish posts the result notification after the agent returns.
func (n *Notifier) NotifyFinish(ctx context.Context, t task.Task, outcome task.Outcome) error {
	body := t.FinishMessage(outcome)

	switch v := t.(type) {
	case *task.IssueTask:
		_, err := n.client.CreateIssueNote(ctx, v.Event.ProjectID, v.Event.IssueIID, body)
		return err
	case *task.MergeRequestCommentTask:
		return n.postToMergeRequest(ctx, v.Event.ProjectID, v.Event.MergeRequestIID, v.Event.DiscussionID, body)
	case *task.MergeRequestLifecycleTask:
		_, err := n.client.CreateMergeRequestNote(ctx, v.Event.ProjectID, v.Event.MergeRequestIID, body)
		return err
	default:
		return fmt.Errorf("unsupported task variant %T", t)
	}
}

// postToMergeRequest replies inside the originating thread when the comment
// belongs to one, otherwise as a top-level merge request note.
func (n *Notifier) postToMergeRequest(ctx context.Context, projectID, mergeRequestIID int, discussionID, body string) error {
	if discussionID != "" {
		_, err := n.client.AddMergeRequestDiscussionNote(ctx, projectID, mergeRequestIID, discussionID, body)
		return err
	}
	_, err := n.client.CreateMergeRequestNote(ctx, projectID, mergeRequestIID, body)
	return err
}
