package event

import (
	"errors"
	"testing"

	"github.com/JetBrains/junie-gitlab/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIssueComment(t *testing.T) {
	p := NewParserWithEnv(map[string]string{
		EnvEventType:    "issue_comment",
		EnvProjectID:    "42",
		EnvProjectPath:  "acme/widgets",
		EnvPipelineID:   "9001",
		EnvIssueIID:     "7",
		EnvCommentID:    "100",
		EnvCommentBody:  "@junie fix the login bug",
		EnvDiscussionID: "d1",
	})

	ctx, err := p.Parse()
	require.NoError(t, err)

	issueCtx, ok := ctx.(*models.IssueCommentContext)
	require.True(t, ok, "expected *IssueCommentContext, got %T", ctx)
	assert.Equal(t, 42, issueCtx.ProjectID)
	assert.Equal(t, "acme/widgets", issueCtx.ProjectPath)
	assert.Equal(t, 9001, issueCtx.PipelineID)
	assert.Equal(t, 7, issueCtx.IssueIID)
	assert.Equal(t, 100, issueCtx.CommentID)
	assert.Equal(t, "@junie fix the login bug", issueCtx.CommentBody)
	assert.Equal(t, "d1", issueCtx.DiscussionID)
	assert.False(t, issueCtx.Timestamp.IsZero())
}

func TestParseMergeRequestComment(t *testing.T) {
	p := NewParserWithEnv(map[string]string{
		EnvEventType:       "merge_request_comment",
		EnvProjectID:       "42",
		EnvMergeRequestIID: "5",
		EnvCommentID:       "200",
		EnvCommentBody:     "@junie go",
	})

	ctx, err := p.Parse()
	require.NoError(t, err)

	mrCtx, ok := ctx.(*models.MergeRequestCommentContext)
	require.True(t, ok, "expected *MergeRequestCommentContext, got %T", ctx)
	assert.Equal(t, 5, mrCtx.MergeRequestIID)
	assert.Empty(t, mrCtx.DiscussionID)
}

func TestParseMergeRequestLifecycle(t *testing.T) {
	p := NewParserWithEnv(map[string]string{
		EnvEventType:         "merge_request_lifecycle",
		EnvProjectID:         "42",
		EnvMergeRequestIID:   "5",
		EnvLifecycleAction:   "open",
		EnvSourceBranch:      "feature/sso",
		EnvTargetBranch:      "main",
		EnvMergeRequestTitle: "Add SSO",
		EnvCustomInstruction: "Review license headers.",
	})

	ctx, err := p.Parse()
	require.NoError(t, err)

	lcCtx, ok := ctx.(*models.MergeRequestLifecycleContext)
	require.True(t, ok, "expected *MergeRequestLifecycleContext, got %T", ctx)
	assert.Equal(t, "open", lcCtx.Action)
	assert.Equal(t, "feature/sso", lcCtx.SourceBranch)
	assert.Equal(t, "Review license headers.", lcCtx.GetCustomInstruction())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected error
	}{
		{
			name:     "unknown event type",
			env:      map[string]string{EnvEventType: "push", EnvProjectID: "42"},
			expected: ErrUnsupportedEventType,
		},
		{
			name:     "missing project",
			env:      map[string]string{EnvEventType: "issue_comment"},
			expected: ErrMissingProject,
		},
		{
			name: "issue comment without issue",
			env: map[string]string{
				EnvEventType: "issue_comment", EnvProjectID: "42", EnvCommentBody: "hi",
			},
			expected: ErrMissingIssue,
		},
		{
			name: "issue comment without body",
			env: map[string]string{
				EnvEventType: "issue_comment", EnvProjectID: "42", EnvIssueIID: "7",
			},
			expected: ErrMissingComment,
		},
		{
			name: "lifecycle without action",
			env: map[string]string{
				EnvEventType: "merge_request_lifecycle", EnvProjectID: "42", EnvMergeRequestIID: "5",
			},
			expected: ErrMissingAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParserWithEnv(tt.env).Parse()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "expected %v, got %v", tt.expected, err)
		})
	}
}
