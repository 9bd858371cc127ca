package event

import (
	"os"
	"strconv"
	"time"

	"github.com/JetBrains/junie-gitlab/pkg/models"
)

// Environment variables carrying the triggering event into the CI job.
// CI_* values are predefined by GitLab; JUNIE_* values are set by the
// webhook-provisioned pipeline trigger.
const (
	EnvEventType         = "JUNIE_EVENT_TYPE"
	EnvProjectID         = "CI_PROJECT_ID"
	EnvProjectPath       = "CI_PROJECT_PATH"
	EnvPipelineID        = "CI_PIPELINE_ID"
	EnvIssueIID          = "JUNIE_ISSUE_IID"
	EnvMergeRequestIID   = "JUNIE_MR_IID"
	EnvCommentID         = "JUNIE_COMMENT_ID"
	EnvCommentBody       = "JUNIE_COMMENT_BODY"
	EnvDiscussionID      = "JUNIE_DISCUSSION_ID"
	EnvLifecycleAction   = "JUNIE_MR_ACTION"
	EnvSourceBranch      = "JUNIE_MR_SOURCE_BRANCH"
	EnvTargetBranch      = "JUNIE_MR_TARGET_BRANCH"
	EnvMergeRequestTitle = "JUNIE_MR_TITLE"
	EnvCustomInstruction = "JUNIE_CUSTOM_INSTRUCTION"
)

// Parser builds an EventContext from the job environment.
type Parser struct {
	getenv func(string) string
}

func NewParser() *Parser {
	return &Parser{getenv: os.Getenv}
}

// NewParserWithEnv creates a parser reading from a fixed environment map.
func NewParserWithEnv(env map[string]string) *Parser {
	return &Parser{getenv: func(key string) string { return env[key] }}
}

// Parse reads the event environment and returns the matching context
// variant. Unknown event types and missing required fields are errors: the
// trigger configuration is broken and the run cannot proceed.
func (p *Parser) Parse() (models.GitLabContext, error) {
	eventType := p.getenv(EnvEventType)
	if !models.IsValidEventType(eventType) {
		return nil, parseError(eventType, ErrUnsupportedEventType)
	}

	base, err := p.parseBase(models.EventType(eventType))
	if err != nil {
		return nil, err
	}

	switch models.EventType(eventType) {
	case models.EventIssueComment:
		return p.parseIssueComment(base)
	case models.EventMergeRequestComment:
		return p.parseMergeRequestComment(base)
	case models.EventMergeRequestLifecycle:
		return p.parseMergeRequestLifecycle(base)
	default:
		return nil, parseError(eventType, ErrUnsupportedEventType)
	}
}

func (p *Parser) parseBase(eventType models.EventType) (models.BaseContext, error) {
	projectID := p.intOf(EnvProjectID)
	if projectID == 0 {
		return models.BaseContext{}, parseError(string(eventType), ErrMissingProject)
	}

	return models.BaseContext{
		Type:              eventType,
		ProjectID:         projectID,
		ProjectPath:       p.getenv(EnvProjectPath),
		PipelineID:        p.intOf(EnvPipelineID),
		CustomInstruction: p.getenv(EnvCustomInstruction),
		Timestamp:         time.Now(),
	}, nil
}

func (p *Parser) parseIssueComment(base models.BaseContext) (*models.IssueCommentContext, error) {
	issueIID := p.intOf(EnvIssueIID)
	if issueIID == 0 {
		return nil, parseError(string(base.Type), ErrMissingIssue)
	}
	body := p.getenv(EnvCommentBody)
	if body == "" {
		return nil, parseError(string(base.Type), ErrMissingComment)
	}

	return &models.IssueCommentContext{
		BaseContext:  base,
		IssueIID:     issueIID,
		CommentID:    p.intOf(EnvCommentID),
		CommentBody:  body,
		DiscussionID: p.getenv(EnvDiscussionID),
	}, nil
}

func (p *Parser) parseMergeRequestComment(base models.BaseContext) (*models.MergeRequestCommentContext, error) {
	mrIID := p.intOf(EnvMergeRequestIID)
	if mrIID == 0 {
		return nil, parseError(string(base.Type), ErrMissingMergeRequest)
	}
	body := p.getenv(EnvCommentBody)
	if body == "" {
		return nil, parseError(string(base.Type), ErrMissingComment)
	}

	return &models.MergeRequestCommentContext{
		BaseContext:     base,
		MergeRequestIID: mrIID,
		CommentID:       p.intOf(EnvCommentID),
		CommentBody:     body,
		DiscussionID:    p.getenv(EnvDiscussionID),
	}, nil
}

func (p *Parser) parseMergeRequestLifecycle(base models.BaseContext) (*models.MergeRequestLifecycleContext, error) {
	mrIID := p.intOf(EnvMergeRequestIID)
	if mrIID == 0 {
		return nil, parseError(string(base.Type), ErrMissingMergeRequest)
	}
	action := p.getenv(EnvLifecycleAction)
	if action == "" {
		return nil, parseError(string(base.Type), ErrMissingAction)
	}

	return &models.MergeRequestLifecycleContext{
		BaseContext:     base,
		MergeRequestIID: mrIID,
		Action:          action,
		SourceBranch:    p.getenv(EnvSourceBranch),
		TargetBranch:    p.getenv(EnvTargetBranch),
		Title:           p.getenv(EnvMergeRequestTitle),
	}, nil
}

func (p *Parser) intOf(key string) int {
	value := p.getenv(key)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
