package models

import (
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// FetchedData bundles the API reads backing one pipeline run.
// A nil field means the data does not apply to this event, not that
// fetching failed: issue comments never carry commits or diffs.
type FetchedData struct {
	MergeRequest *gitlab.MergeRequest       `json:"merge_request,omitempty"`
	Issue        *gitlab.Issue              `json:"issue,omitempty"`
	Commits      []*gitlab.Commit           `json:"commits,omitempty"`
	Discussions  []*gitlab.Discussion       `json:"discussions,omitempty"`
	Changes      []*gitlab.MergeRequestDiff `json:"changes,omitempty"`
}

// FailedPipelineID returns the id of the merge request's head pipeline
// when that pipeline is in a failed state, or 0 when there is none.
func (fd *FetchedData) FailedPipelineID() int {
	if fd == nil || fd.MergeRequest == nil {
		return 0
	}
	p := fd.MergeRequest.HeadPipeline
	if p == nil || p.Status != "failed" {
		return 0
	}
	return p.ID
}
