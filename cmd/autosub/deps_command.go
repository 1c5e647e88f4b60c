package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/deps"
	"github.com/tanmayk15/AutoTranscriber/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var checkLLM bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Report external programs, directories, and the translation endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			fmt.Fprintln(out, renderDependencyTable(statuses, colorize))

			results := preflight.RunAll(cmd.Context(), cfg)
			if checkLLM {
				results = append(results, preflight.CheckLLM(cmd.Context(), cfg.LLM))
			} else if cfg.TranslationEnabled() && cfg.Translation.Backend == config.BackendLLM {
				results = append(results, preflight.Result{
					Name:   "Translation LLM",
					Passed: true,
					Detail: "not checked (use --check-llm)",
				})
			}
			fmt.Fprintln(out, renderCheckTable(results, colorize))

			if deps.AnyMissing(statuses) || len(preflight.Failed(results)) > 0 {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkLLM, "check-llm", false, "Also call the configured LLM endpoint")
	return cmd
}

func renderDependencyTable(statuses []deps.Status, colorize bool) string {
	headers := []string{"Dependency", "Status", "Command", "Detail"}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		label, kind := "ok", statusOK
		switch {
		case s.Missing():
			label, kind = "missing", statusError
		case !s.Available:
			label, kind = "optional", statusWarn
		}
		detail := s.Detail
		if s.Available && s.Path != "" {
			detail = s.Path
		}
		if detail == "" {
			detail = s.Description
		}
		rows = append(rows, []string{s.Name, colorStatus(label, kind, colorize), s.Command, detail})
	}
	return renderTable(headers, rows, nil)
}

func renderCheckTable(results []preflight.Result, colorize bool) string {
	headers := []string{"Check", "Status", "Detail"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		label, kind := "ok", statusOK
		if !r.Passed {
			label, kind = "failed", statusError
		}
		rows = append(rows, []string{r.Name, colorStatus(label, kind, colorize), r.Detail})
	}
	return renderTable(headers, rows, nil)
}
