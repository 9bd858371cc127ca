package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/JetBrains/junie-gitlab/internal/task"
	"github.com/JetBrains/junie-gitlab/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type postedNote struct {
	target       string
	projectID    int
	entityIID    int
	discussionID string
	body         string
}

type fakePoster struct {
	notes     []postedNote
	reactions []string
	emojiErr  error
}

func (f *fakePoster) CreateIssueNote(ctx context.Context, projectID, issueIID int, body string) (*gitlab.Note, error) {
	f.notes = append(f.notes, postedNote{target: "issue", projectID: projectID, entityIID: issueIID, body: body})
	return &gitlab.Note{ID: 1}, nil
}

func (f *fakePoster) CreateMergeRequestNote(ctx context.Context, projectID, mergeRequestIID int, body string) (*gitlab.Note, error) {
	f.notes = append(f.notes, postedNote{target: "merge_request", projectID: projectID, entityIID: mergeRequestIID, body: body})
	return &gitlab.Note{ID: 2}, nil
}

func (f *fakePoster) AddMergeRequestDiscussionNote(ctx context.Context, projectID, mergeRequestIID int, discussionID, body string) (*gitlab.Note, error) {
	f.notes = append(f.notes, postedNote{target: "discussion", projectID: projectID, entityIID: mergeRequestIID, discussionID: discussionID, body: body})
	return &gitlab.Note{ID: 3}, nil
}

func (f *fakePoster) CreateIssueAwardEmoji(ctx context.Context, projectID, issueIID int, name string) error {
	if f.emojiErr != nil {
		return f.emojiErr
	}
	f.reactions = append(f.reactions, name)
	return nil
}

func issueTask() *task.IssueTask {
	return &task.IssueTask{
		Event: &models.IssueCommentContext{
			BaseContext: models.BaseContext{ProjectID: 42},
			IssueIID:    7,
		},
	}
}

func TestNotifyStartIssueComment(t *testing.T) {
	poster := &fakePoster{}
	n := NewNotifier(poster)

	require.NoError(t, n.NotifyStart(context.Background(), issueTask()))

	require.Len(t, poster.notes, 1)
	assert.Equal(t, "issue", poster.notes[0].target)
	assert.Equal(t, 42, poster.notes[0].projectID)
	assert.Equal(t, 7, poster.notes[0].entityIID)
	assert.NotEmpty(t, poster.notes[0].body)
	assert.Equal(t, []string{"thumbsup"}, poster.reactions)
}

func TestNotifyStartReactionFailureIsNotFatal(t *testing.T) {
	poster := &fakePoster{emojiErr: errors.New("emoji rejected")}
	n := NewNotifier(poster)

	assert.NoError(t, n.NotifyStart(context.Background(), issueTask()))
	assert.Len(t, poster.notes, 1)
}

func TestNotifyStartMergeRequestCommentInThread(t *testing.T) {
	poster := &fakePoster{}
	n := NewNotifier(poster)

	mrTask := &task.MergeRequestCommentTask{
		Event: &models.MergeRequestCommentContext{
			BaseContext:     models.BaseContext{ProjectID: 42},
			MergeRequestIID: 5,
			DiscussionID:    "abc123",
		},
	}

	require.NoError(t, n.NotifyStart(context.Background(), mrTask))

	require.Len(t, poster.notes, 1)
	assert.Equal(t, "discussion", poster.notes[0].target)
	assert.Equal(t, "abc123", poster.notes[0].discussionID)
	assert.Empty(t, poster.reactions)
}

func TestNotifyStartMergeRequestCommentWithoutThread(t *testing.T) {
	poster := &fakePoster{}
	n := NewNotifier(poster)

	mrTask := &task.MergeRequestCommentTask{
		Event: &models.MergeRequestCommentContext{
			BaseContext:     models.BaseContext{ProjectID: 42},
			MergeRequestIID: 5,
		},
	}

	require.NoError(t, n.NotifyStart(context.Background(), mrTask))

	require.Len(t, poster.notes, 1)
	assert.Equal(t, "merge_request", poster.notes[0].target)
}

func TestNotifyFinishLifecyclePostsMergeRequestNote(t *testing.T) {
	poster := &fakePoster{}
	n := NewNotifier(poster)

	lifecycleTask := &task.MergeRequestLifecycleTask{
		Event: &models.MergeRequestLifecycleContext{
			BaseContext:     models.BaseContext{ProjectID: 42},
			MergeRequestIID: 5,
		},
	}

	outcome := task.Outcome{CreatedMRURL: "https://gitlab.example.com/acme/widgets/-/merge_requests/9"}
	require.NoError(t, n.NotifyFinish(context.Background(), lifecycleTask, outcome))

	require.Len(t, poster.notes, 1)
	assert.Equal(t, "merge_request", poster.notes[0].target)
	assert.Contains(t, poster.notes[0].body, "merge_requests/9")
}

func TestNotifyFinishNoChanges(t *testing.T) {
	poster := &fakePoster{}
	n := NewNotifier(poster)

	require.NoError(t, n.NotifyFinish(context.Background(), issueTask(), task.Outcome{}))

	require.Len(t, poster.notes, 1)
	assert.Equal(t, task.NoChangesMessage, poster.notes[0].body)
}
