package models

import (
	"time"
)

// EventType defines GitLab event types handled by the pipeline
type EventType string

const (
	EventIssueComment          EventType = "issue_comment"
	EventMergeRequestComment   EventType = "merge_request_comment"
	EventMergeRequestLifecycle EventType = "merge_request_lifecycle"
)

// GitLabContext is the interface for all GitLab event contexts
type GitLabContext interface {
	GetEventType() EventType
	GetProjectID() int
	GetProjectPath() string
	GetPipelineID() int
	GetCustomInstruction() string
	GetTimestamp() time.Time
}

// BaseContext provides base implementation for all event contexts
type BaseContext struct {
	Type        EventType `json:"type"`
	ProjectID   int       `json:"project_id"`
	ProjectPath string    `json:"project_path"`
	PipelineID  int       `json:"pipeline_id"`
	// CustomInstruction overrides the comment body as the operator
	// instruction when set (JUNIE_CUSTOM_INSTRUCTION)
	CustomInstruction string    `json:"custom_instruction,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

func (bc *BaseContext) GetEventType() EventType {
	return bc.Type
}

func (bc *BaseContext) GetProjectID() int {
	return bc.ProjectID
}

func (bc *BaseContext) GetProjectPath() string {
	return bc.ProjectPath
}

func (bc *BaseContext) GetPipelineID() int {
	return bc.PipelineID
}

func (bc *BaseContext) GetCustomInstruction() string {
	return bc.CustomInstruction
}

func (bc *BaseContext) GetTimestamp() time.Time {
	return bc.Timestamp
}

// IssueCommentContext carries a note created on an issue
type IssueCommentContext struct {
	BaseContext
	IssueIID    int    `json:"issue_iid"`
	CommentID   int    `json:"comment_id"`
	CommentBody string `json:"comment_body"`
	// DiscussionID is set when the note belongs to a thread
	DiscussionID string `json:"discussion_id,omitempty"`
}

// MergeRequestCommentContext carries a note created on a merge request
type MergeRequestCommentContext struct {
	BaseContext
	MergeRequestIID int    `json:"merge_request_iid"`
	CommentID       int    `json:"comment_id"`
	CommentBody     string `json:"comment_body"`
	DiscussionID    string `json:"discussion_id,omitempty"`
}

// MergeRequestLifecycleContext carries a merge request open/update/merge action
type MergeRequestLifecycleContext struct {
	BaseContext
	MergeRequestIID int    `json:"merge_request_iid"`
	Action          string `json:"action"`
	SourceBranch    string `json:"source_branch"`
	TargetBranch    string `json:"target_branch"`
	Title           string `json:"title"`
}

// IsValidEventType checks whether an event type string is handled
func IsValidEventType(eventType string) bool {
	switch EventType(eventType) {
	case EventIssueComment, EventMergeRequestComment, EventMergeRequestLifecycle:
		return true
	default:
		return false
	}
}
