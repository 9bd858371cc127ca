// Command junie-gitlab is the CI job entry point. "run" classifies the
// triggering event and emits the agent task payload; "finish" posts the
// closing feedback after the agent process exits.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/qiniu/x/xlog"
	"github.com/spf13/cobra"

	"github.com/JetBrains/junie-gitlab/internal/config"
	"github.com/JetBrains/junie-gitlab/internal/event"
	"github.com/JetBrains/junie-gitlab/internal/pipeline"
	"github.com/JetBrains/junie-gitlab/internal/task"
	"github.com/JetBrains/junie-gitlab/internal/trace"
	"github.com/JetBrains/junie-gitlab/pkg/models"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "junie-gitlab",
		Short:         "GitLab automation agent pipeline",
		Long:          "junie-gitlab turns GitLab issue and merge request activity into agent tasks and reports the results back as comments.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "config.yaml", "path to the configuration file")
	root.AddCommand(newRunCmd())
	root.AddCommand(newFinishCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify the triggering event and emit the agent task payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return runPipeline(cmd, output)
		},
	}
	cmd.Flags().StringP("output", "o", "-", "where to write the task payload, - for stdout")
	return cmd
}

func newFinishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Post the finish feedback for a completed agent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := outcomeFromFlags(cmd)
			if err != nil {
				return err
			}
			return finishPipeline(cmd, outcome)
		},
	}
	cmd.Flags().String("summary", "", "outcome summary text")
	cmd.Flags().String("summary-file", "", "file holding the outcome summary, overrides --summary")
	cmd.Flags().String("task-name", "", "name of the executed task, shown next to the summary")
	cmd.Flags().String("mr-url", "", "URL of a merge request created by the run")
	return cmd
}

func runPipeline(cmd *cobra.Command, output string) error {
	p, ctx, ev, err := setup(cmd)
	if err != nil {
		return err
	}
	xl := xlog.NewWith(ctx)

	payload, err := p.Run(ctx, ev)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task payload: %w", err)
	}
	data = append(data, '\n')

	if output == "-" || output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write task payload: %w", err)
	}
	xl.Infof("Task payload written to %s", output)
	return nil
}

func finishPipeline(cmd *cobra.Command, outcome task.Outcome) error {
	p, ctx, ev, err := setup(cmd)
	if err != nil {
		return err
	}
	return p.Finish(ctx, ev, outcome)
}

// setup does the shared per-invocation wiring: config, trace-scoped
// context, event parsing and pipeline construction.
func setup(cmd *cobra.Command) (*pipeline.Pipeline, context.Context, models.GitLabContext, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	ev, err := event.NewParser().Parse()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse event: %w", err)
	}

	ctx := trace.NewContext(cmd.Context(), trace.NewTraceID(string(ev.GetEventType())))
	xl := xlog.NewWith(ctx)
	xl.Infof("Run %s started, GitLab base URL: %s", trace.GetTraceID(ctx), cfg.GitLab.BaseURL)
	xl.Infof("Event: type=%s project=%s pipeline=%d",
		ev.GetEventType(), ev.GetProjectPath(), ev.GetPipelineID())

	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, ctx, ev, nil
}

func outcomeFromFlags(cmd *cobra.Command) (task.Outcome, error) {
	summary, _ := cmd.Flags().GetString("summary")
	summaryFile, _ := cmd.Flags().GetString("summary-file")
	taskName, _ := cmd.Flags().GetString("task-name")
	mrURL, _ := cmd.Flags().GetString("mr-url")

	if summaryFile != "" {
		data, err := os.ReadFile(summaryFile)
		if err != nil {
			return task.Outcome{}, fmt.Errorf("read summary file: %w", err)
		}
		summary = strings.TrimSpace(string(data))
	}

	return task.Outcome{
		Summary:      summary,
		TaskName:     taskName,
		CreatedMRURL: mrURL,
	}, nil
}
