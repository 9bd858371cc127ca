package task

import (
	"fmt"

	"github.com/JetBrains/junie-gitlab/internal/config"
	"github.com/JetBrains/junie-gitlab/internal/prompt"
	"github.com/JetBrains/junie-gitlab/pkg/models"
)

// Result is the closed set of classification outcomes. A run either yields
// exactly one Task variant or a NoAction value naming why nothing happens.
type Result interface {
	isResult()
}

// NoAction means classification decided the event warrants no agent run.
// It is not an error: the pipeline logs the reason and exits cleanly.
type NoAction struct {
	Reason string
}

func (NoAction) isResult() {}

// Task is a fully classified work item. Every variant can produce its
// prompt, display title and feedback messages without further input.
type Task interface {
	Result

	// Kind returns the event type the task was derived from
	Kind() models.EventType
	// Title is a short human-readable description of the work item
	Title() string
	// CheckoutBranch is the branch the agent works on; empty means a new
	// branch off the repository default
	CheckoutBranch() string
	// RenderPrompt assembles the sanitized task string for the agent
	RenderPrompt(cfg *config.Config) string
	// StartMessage is the acknowledgment posted before the agent runs
	StartMessage() string
	// FinishMessage renders the result notification for an outcome
	FinishMessage(outcome Outcome) string
}

// Outcome summarizes what the agent run produced.
type Outcome struct {
	Summary      string
	TaskName     string
	CreatedMRURL string
}

const (
	startMessageText = "Junie is on it. A reply will be posted here when the work is finished."
	finishHeader     = "#### Junie has finished working on this request"

	// NoChangesMessage is the exact finish text when the agent produced
	// neither a merge request nor an outcome summary.
	NoChangesMessage = finishHeader + "\n\nNo changes were made."
)

// finishMessage renders the finish notification. A created merge request
// always wins over outcome text: the artifact is the primary signal of
// success, so the summary is not repeated next to the link.
func finishMessage(outcome Outcome) string {
	if outcome.CreatedMRURL != "" {
		return fmt.Sprintf("%s\n\nSee the merge request: %s", finishHeader, outcome.CreatedMRURL)
	}
	if outcome.Summary != "" {
		if outcome.TaskName != "" {
			return fmt.Sprintf("%s\n\n**Task:** %s\n\n%s", finishHeader, outcome.TaskName, outcome.Summary)
		}
		return fmt.Sprintf("%s\n\n%s", finishHeader, outcome.Summary)
	}
	return NoChangesMessage
}

// IssueTask is a run triggered by a mention inside an issue comment.
// Work always lands on a new branch off the repository default.
type IssueTask struct {
	Event *models.IssueCommentContext
	Data  *models.FetchedData
}

func (t *IssueTask) isResult() {}

func (t *IssueTask) Kind() models.EventType {
	return models.EventIssueComment
}

func (t *IssueTask) Title() string {
	if t.Data != nil && t.Data.Issue != nil {
		return fmt.Sprintf("Issue #%d: %s", t.Event.IssueIID, t.Data.Issue.Title)
	}
	return fmt.Sprintf("Issue #%d", t.Event.IssueIID)
}

func (t *IssueTask) CheckoutBranch() string {
	return ""
}

func (t *IssueTask) RenderPrompt(cfg *config.Config) string {
	return prompt.Format(cfg, t.Event, t.Data)
}

func (t *IssueTask) StartMessage() string {
	return startMessageText
}

func (t *IssueTask) FinishMessage(outcome Outcome) string {
	return finishMessage(outcome)
}

// MergeRequestCommentTask is a run triggered by a mention inside a merge
// request comment. The agent works on the merge request's source branch.
type MergeRequestCommentTask struct {
	Event *models.MergeRequestCommentContext
	Data  *models.FetchedData
}

func (t *MergeRequestCommentTask) isResult() {}

func (t *MergeRequestCommentTask) Kind() models.EventType {
	return models.EventMergeRequestComment
}

func (t *MergeRequestCommentTask) Title() string {
	if t.Data != nil && t.Data.MergeRequest != nil {
		return fmt.Sprintf("Merge request !%d: %s", t.Event.MergeRequestIID, t.Data.MergeRequest.Title)
	}
	return fmt.Sprintf("Merge request !%d", t.Event.MergeRequestIID)
}

func (t *MergeRequestCommentTask) CheckoutBranch() string {
	if t.Data != nil && t.Data.MergeRequest != nil {
		return t.Data.MergeRequest.SourceBranch
	}
	return ""
}

func (t *MergeRequestCommentTask) RenderPrompt(cfg *config.Config) string {
	return prompt.Format(cfg, t.Event, t.Data)
}

func (t *MergeRequestCommentTask) StartMessage() string {
	return startMessageText
}

func (t *MergeRequestCommentTask) FinishMessage(outcome Outcome) string {
	return finishMessage(outcome)
}

// MergeRequestLifecycleTask is a run triggered by a merge request lifecycle
// action under an operator-configured instruction.
type MergeRequestLifecycleTask struct {
	Event *models.MergeRequestLifecycleContext
	Data  *models.FetchedData
}

func (t *MergeRequestLifecycleTask) isResult() {}

func (t *MergeRequestLifecycleTask) Kind() models.EventType {
	return models.EventMergeRequestLifecycle
}

func (t *MergeRequestLifecycleTask) Title() string {
	return fmt.Sprintf("Merge request !%d %s: %s", t.Event.MergeRequestIID, t.Event.Action, t.Event.Title)
}

func (t *MergeRequestLifecycleTask) CheckoutBranch() string {
	if t.Data != nil && t.Data.MergeRequest != nil {
		return t.Data.MergeRequest.SourceBranch
	}
	return t.Event.SourceBranch
}

func (t *MergeRequestLifecycleTask) RenderPrompt(cfg *config.Config) string {
	return prompt.Format(cfg, t.Event, t.Data)
}

func (t *MergeRequestLifecycleTask) StartMessage() string {
	return startMessageText
}

func (t *MergeRequestLifecycleTask) FinishMessage(outcome Outcome) string {
	return finishMessage(outcome)
}
