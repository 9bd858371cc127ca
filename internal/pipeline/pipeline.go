// Package pipeline wires event ingestion, classification, prompt assembly
// and feedback into a single run of the automation job.
package pipeline

import (
	"context"
	"fmt"

	"github.com/qiniu/x/xlog"

	"github.com/JetBrains/junie-gitlab/internal/config"
	"github.com/JetBrains/junie-gitlab/internal/feedback"
	"github.com/JetBrains/junie-gitlab/internal/gitlabclient"
	"github.com/JetBrains/junie-gitlab/internal/mention"
	"github.com/JetBrains/junie-gitlab/internal/task"
	"github.com/JetBrains/junie-gitlab/pkg/models"
)

// Classifier turns a raw event context into a task or a no-action result.
type Classifier interface {
	Extract(ctx context.Context, event models.GitLabContext) (task.Result, error)
}

// Notifier posts run feedback back to GitLab.
type Notifier interface {
	NotifyStart(ctx context.Context, t task.Task) error
	NotifyFinish(ctx context.Context, t task.Task, outcome task.Outcome) error
}

// TaskPayload is the handoff written for the agent process. The prompt is
// fully assembled and sanitized; the agent consumes it verbatim.
type TaskPayload struct {
	Kind           string `json:"kind"`
	Title          string `json:"title"`
	CheckoutBranch string `json:"checkout_branch,omitempty"`
	Prompt         string `json:"prompt"`
}

// Pipeline owns the per-run components. A Pipeline instance is scoped to a
// single CI job invocation and holds no cross-run state.
type Pipeline struct {
	cfg        *config.Config
	classifier Classifier
	notifier   Notifier
}

// New builds a Pipeline with the real GitLab-backed components.
func New(cfg *config.Config) (*Pipeline, error) {
	client, err := gitlabclient.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}

	fetcher := gitlabclient.NewFetcher(client)
	detector := mention.NewDetector(client, cfg.Agent.MaxGroupDepth)

	return &Pipeline{
		cfg:        cfg,
		classifier: task.NewClassifier(cfg, fetcher, detector),
		notifier:   feedback.NewNotifier(client),
	}, nil
}

// NewWithComponents is the injection point for tests.
func NewWithComponents(cfg *config.Config, classifier Classifier, notifier Notifier) *Pipeline {
	return &Pipeline{cfg: cfg, classifier: classifier, notifier: notifier}
}

// Run executes the start half of a run: classify the event, post start
// feedback and assemble the agent payload. A nil payload with a nil error
// means the event required no action.
func (p *Pipeline) Run(ctx context.Context, event models.GitLabContext) (*TaskPayload, error) {
	xl := xlog.NewWith(ctx)

	result, err := p.classifier.Extract(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("classify event: %w", err)
	}

	switch r := result.(type) {
	case task.NoAction:
		xl.Infof("No task for %s event: %s", event.GetEventType(), r.Reason)
		return nil, nil
	case task.Task:
		if err := p.notifier.NotifyStart(ctx, r); err != nil {
			// The run proceeds even when the acknowledgement comment fails.
			xl.Warnf("Failed to post start feedback: %v", err)
		}
		return &TaskPayload{
			Kind:           string(event.GetEventType()),
			Title:          r.Title(),
			CheckoutBranch: r.CheckoutBranch(),
			Prompt:         r.RenderPrompt(p.cfg),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported classification result type %T", result)
	}
}

// Finish posts the closing feedback for a completed agent run. The task is
// rebuilt from the event context alone; finish feedback never needs the
// fetched GitLab data.
func (p *Pipeline) Finish(ctx context.Context, event models.GitLabContext, outcome task.Outcome) error {
	t, err := taskForEvent(event)
	if err != nil {
		return err
	}
	if err := p.notifier.NotifyFinish(ctx, t, outcome); err != nil {
		return fmt.Errorf("post finish feedback: %w", err)
	}
	return nil
}

func taskForEvent(event models.GitLabContext) (task.Task, error) {
	switch e := event.(type) {
	case *models.IssueCommentContext:
		return &task.IssueTask{Event: e}, nil
	case *models.MergeRequestCommentContext:
		return &task.MergeRequestCommentTask{Event: e}, nil
	case *models.MergeRequestLifecycleContext:
		return &task.MergeRequestLifecycleTask{Event: e}, nil
	default:
		return nil, fmt.Errorf("unsupported event context type %T", event)
	}
}
