package prompt

import (
	"fmt"
	"strings"

	"github.com/JetBrains/junie-gitlab/internal/config"
	"github.com/JetBrains/junie-gitlab/internal/sanitize"
	"github.com/JetBrains/junie-gitlab/pkg/models"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const gitFooter = "The pipeline performs all git staging, commits and pushes. " +
	"Do not run any version-control commands yourself."

// commentInfo is the comment-shaped slice of an event context, empty for
// lifecycle events.
type commentInfo struct {
	body         string
	commentID    int
	discussionID string
	issueIID     int
	mrIID        int
}

func commentInfoOf(event models.GitLabContext) commentInfo {
	switch e := event.(type) {
	case *models.IssueCommentContext:
		return commentInfo{
			body:         e.CommentBody,
			commentID:    e.CommentID,
			discussionID: e.DiscussionID,
			issueIID:     e.IssueIID,
		}
	case *models.MergeRequestCommentContext:
		return commentInfo{
			body:         e.CommentBody,
			commentID:    e.CommentID,
			discussionID: e.DiscussionID,
			mrIID:        e.MergeRequestIID,
		}
	case *models.MergeRequestLifecycleContext:
		return commentInfo{mrIID: e.MergeRequestIID}
	default:
		return commentInfo{}
	}
}

// Format renders the natural-language task string for the agent. Trigger
// phrases in the effective instruction select specialized templates; the
// generic template renders one section per available context block and omits
// sections whose backing data is absent. The assembled string passes through
// the sanitizer exactly once, last.
func Format(cfg *config.Config, event models.GitLabContext, data *models.FetchedData) string {
	info := commentInfoOf(event)

	instruction := event.GetCustomInstruction()
	effective := instruction
	if effective == "" {
		effective = info.body
	}

	trigger, request := DetectTrigger(effective)
	switch trigger {
	case TriggerCodeReview:
		return sanitize.Sanitize(formatCodeReview(event, data))
	case TriggerFixCI:
		// fix-ci needs a merge request comment and a known failed pipeline;
		// without either the generic template applies
		if info.mrIID > 0 && info.commentID > 0 && data != nil && data.FailedPipelineID() != 0 {
			return sanitize.Sanitize(formatFixCI(event, data))
		}
	case TriggerMinorFix:
		return sanitize.Sanitize(formatMinorFix(event, data, request))
	}

	var b strings.Builder

	writeInstruction(&b, instruction, info)
	writeRepository(&b, event)
	if data != nil {
		writeMergeRequest(&b, data.MergeRequest)
		writeIssue(&b, data.Issue)
		writeCommits(&b, data.Commits)
		writeDiscussions(&b, data.Discussions)
		writeChanges(&b, data.Changes)
	}
	writeRunMetadata(&b, event)
	if cfg.Agent.MCPEnabled {
		writeMCPNote(&b, event, info)
	}
	b.WriteString(gitFooter)
	b.WriteString("\n")

	return sanitize.Sanitize(b.String())
}

func writeInstruction(b *strings.Builder, instruction string, info commentInfo) {
	if instruction == "" && info.body == "" {
		return
	}
	b.WriteString("## Instruction\n\n")
	if instruction != "" {
		b.WriteString("Operator instruction:\n")
		b.WriteString(instruction)
		b.WriteString("\n\n")
	}
	if info.body != "" {
		if info.discussionID != "" {
			fmt.Fprintf(b, "Comment in discussion %s:\n", info.discussionID)
		} else {
			b.WriteString("Comment:\n")
		}
		b.WriteString(info.body)
		b.WriteString("\n\n")
	}
}

func writeRepository(b *strings.Builder, event models.GitLabContext) {
	b.WriteString("## Repository\n\n")
	fmt.Fprintf(b, "Project: %s (id %d)\n\n", event.GetProjectPath(), event.GetProjectID())
}

func writeMergeRequest(b *strings.Builder, mr *gitlab.MergeRequest) {
	if mr == nil {
		return
	}
	b.WriteString("## Merge request\n\n")
	fmt.Fprintf(b, "!%d: %s\n", mr.IID, mr.Title)
	if mr.Author != nil {
		fmt.Fprintf(b, "Author: %s\n", mr.Author.Username)
	}
	fmt.Fprintf(b, "State: %s\n", mr.State)
	fmt.Fprintf(b, "Branches: %s -> %s\n", mr.SourceBranch, mr.TargetBranch)
	if mr.DiffRefs.BaseSha != "" || mr.DiffRefs.HeadSha != "" {
		fmt.Fprintf(b, "Diff base: %s\nDiff head: %s\n", mr.DiffRefs.BaseSha, mr.DiffRefs.HeadSha)
	}
	if mr.ChangesCount != "" {
		fmt.Fprintf(b, "Changed files: %s\n", mr.ChangesCount)
	}
	fmt.Fprintf(b, "Discussions: %d\n", mr.UserNotesCount)
	fmt.Fprintf(b, "Votes: +%d / -%d\n", mr.Upvotes, mr.Downvotes)
	if mr.Draft {
		b.WriteString("Draft: yes\n")
	}
	b.WriteString("\n")
}

func writeIssue(b *strings.Builder, issue *gitlab.Issue) {
	if issue == nil {
		return
	}
	b.WriteString("## Issue\n\n")
	fmt.Fprintf(b, "#%d: %s\n", issue.IID, issue.Title)
	if issue.Author != nil {
		fmt.Fprintf(b, "Author: %s\n", issue.Author.Username)
	}
	fmt.Fprintf(b, "State: %s\n", issue.State)
	if len(issue.Labels) > 0 {
		fmt.Fprintf(b, "Labels: %s\n", strings.Join(issue.Labels, ", "))
	}
	fmt.Fprintf(b, "Discussions: %d\n", issue.UserNotesCount)
	b.WriteString("\n")
}

func writeCommits(b *strings.Builder, commits []*gitlab.Commit) {
	if len(commits) == 0 {
		return
	}
	b.WriteString("## Commits\n\n")
	for _, commit := range commits {
		date := ""
		if commit.CreatedAt != nil {
			date = commit.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(b, "- %s %s %s\n", date, commit.ShortID, commit.Title)
	}
	b.WriteString("\n")
}

// writeDiscussions renders user-authored notes only. A discussion whose
// notes are all system-generated contributes nothing.
func writeDiscussions(b *strings.Builder, discussions []*gitlab.Discussion) {
	var rendered []string
	for _, discussion := range discussions {
		var notes []string
		for _, note := range discussion.Notes {
			if note.System {
				continue
			}
			line := fmt.Sprintf("- %s: %s", note.Author.Username, note.Body)
			if note.Resolved {
				line += " [resolved]"
			}
			notes = append(notes, line)
		}
		if len(notes) == 0 {
			continue
		}
		var section strings.Builder
		if !discussion.IndividualNote {
			fmt.Fprintf(&section, "### Thread %s\n", discussion.ID)
		}
		section.WriteString(strings.Join(notes, "\n"))
		rendered = append(rendered, section.String())
	}
	if len(rendered) == 0 {
		return
	}
	b.WriteString("## Discussions\n\n")
	b.WriteString(strings.Join(rendered, "\n\n"))
	b.WriteString("\n\n")
}

func writeChanges(b *strings.Builder, changes []*gitlab.MergeRequestDiff) {
	if len(changes) == 0 {
		return
	}
	b.WriteString("## Changed files\n\n")
	for _, change := range changes {
		switch {
		case change.NewFile:
			fmt.Fprintf(b, "- %s (added)\n", change.NewPath)
		case change.DeletedFile:
			fmt.Fprintf(b, "- %s (deleted)\n", change.OldPath)
		case change.RenamedFile:
			fmt.Fprintf(b, "- %s -> %s (renamed)\n", change.OldPath, change.NewPath)
		default:
			fmt.Fprintf(b, "- %s (modified)\n", change.NewPath)
		}
	}
	b.WriteString("\n")
}

func writeRunMetadata(b *strings.Builder, event models.GitLabContext) {
	b.WriteString("## Run\n\n")
	fmt.Fprintf(b, "Event: %s\n", event.GetEventType())
	if event.GetPipelineID() > 0 {
		fmt.Fprintf(b, "Pipeline: %d\n", event.GetPipelineID())
	}
	fmt.Fprintf(b, "Triggered at: %s\n\n", event.GetTimestamp().Format("2006-01-02 15:04:05 MST"))
}

func writeMCPNote(b *strings.Builder, event models.GitLabContext, info commentInfo) {
	b.WriteString("## Integration\n\n")
	fmt.Fprintf(b, "MCP tools are available. Current identifiers: project %d", event.GetProjectID())
	if info.issueIID > 0 {
		fmt.Fprintf(b, ", issue %d", info.issueIID)
	}
	if info.mrIID > 0 {
		fmt.Fprintf(b, ", merge request %d", info.mrIID)
	}
	if info.commentID > 0 {
		fmt.Fprintf(b, ", comment %d", info.commentID)
	}
	b.WriteString(".\n")
	b.WriteString("Do not post a summary as a separate comment; the pipeline posts it for you.\n")
	if info.mrIID > 0 && info.commentID > 0 {
		b.WriteString("When replying inside the existing discussion, do not open a new thread.\n")
	}
	b.WriteString("\n")
}

func formatCodeReview(event models.GitLabContext, data *models.FetchedData) string {
	var b strings.Builder
	b.WriteString("Perform a code review of the current changes and post your findings.\n\n")
	writeRepository(&b, event)
	if data != nil {
		writeMergeRequest(&b, data.MergeRequest)
		writeChanges(&b, data.Changes)
	}
	b.WriteString("Review the diff between the base and head commits. Report correctness, " +
		"security and maintainability findings with file and line references. " +
		"Do not modify any files.\n\n")
	b.WriteString(gitFooter)
	b.WriteString("\n")
	return b.String()
}

func formatFixCI(event models.GitLabContext, data *models.FetchedData) string {
	var b strings.Builder
	pipelineID := data.FailedPipelineID()
	fmt.Fprintf(&b, "Pipeline %d failed. Analyze the failure and fix it.\n\n", pipelineID)
	writeRepository(&b, event)
	writeMergeRequest(&b, data.MergeRequest)
	fmt.Fprintf(&b, "Inspect the jobs of pipeline %d, identify the cause of the failure, "+
		"and apply the changes needed to make the pipeline pass.\n\n", pipelineID)
	b.WriteString(gitFooter)
	b.WriteString("\n")
	return b.String()
}

func formatMinorFix(event models.GitLabContext, data *models.FetchedData, request string) string {
	var b strings.Builder
	b.WriteString("Apply one narrowly-scoped change.\n\n")
	writeRepository(&b, event)
	if data != nil {
		writeMergeRequest(&b, data.MergeRequest)
		writeIssue(&b, data.Issue)
	}
	if request != "" {
		fmt.Fprintf(&b, "Requested change: %s\n\n", request)
	} else {
		b.WriteString("No further description was given; infer the change from the surrounding discussion.\n\n")
	}
	b.WriteString("Keep the change minimal. Do not refactor beyond what the request needs.\n\n")
	b.WriteString(gitFooter)
	b.WriteString("\n")
	return b.String()
}
