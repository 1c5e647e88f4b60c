package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanmayk15/AutoTranscriber/internal/runlog"
)

type runView struct {
	ID             string      `json:"id"`
	Status         string      `json:"status"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     *time.Time  `json:"finished_at,omitempty"`
	VideoCount     int         `json:"video_count"`
	FailureCount   int         `json:"failure_count"`
	TargetLanguage string      `json:"target_language,omitempty"`
	TTSEnabled     bool        `json:"tts_enabled"`
	Videos         []videoView `json:"videos,omitempty"`
}

type videoView struct {
	Source         string   `json:"source"`
	Status         string   `json:"status"`
	SourceLanguage string   `json:"source_language,omitempty"`
	Translated     bool     `json:"translated"`
	Segments       int      `json:"segments"`
	Clips          int      `json:"clips"`
	Outputs        []string `json:"outputs,omitempty"`
	Degradations   []string `json:"degradations,omitempty"`
	Error          string   `json:"error,omitempty"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var pruneDays int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded batch runs, or the videos of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := runlog.Open(cfg.RunLogPath())
			if err != nil {
				return fmt.Errorf("open run log: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if pruneDays > 0 {
				removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d run(s) older than %d day(s)\n", removed, pruneDays)
				return nil
			}

			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				videos, err := store.RunVideos(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if asJSON {
					view := newRunView(run)
					for _, v := range videos {
						view.Videos = append(view.Videos, newVideoView(v))
					}
					return writeJSON(cmd, view)
				}
				fmt.Fprintln(out, renderRunDetail(run, videos, shouldColorize(out)))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				views := make([]runView, 0, len(runs))
				for _, r := range runs {
					views = append(views, newRunView(r))
				}
				return writeJSON(cmd, views)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunList(runs, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete runs started more than this many days ago")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newRunView(r runlog.Run) runView {
	view := runView{
		ID:             r.ID,
		Status:         string(r.Status),
		StartedAt:      r.StartedAt,
		VideoCount:     r.VideoCount,
		FailureCount:   r.FailureCount,
		TargetLanguage: r.TargetLanguage,
		TTSEnabled:     r.TTSEnabled,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		view.FinishedAt = &finished
	}
	return view
}

func newVideoView(v runlog.Video) videoView {
	return videoView{
		Source:         v.SourcePath,
		Status:         string(v.Status),
		SourceLanguage: v.SourceLanguage,
		Translated:     v.Translated,
		Segments:       v.SegmentCount,
		Clips:          v.ArtifactCount,
		Outputs:        v.Outputs,
		Degradations:   v.Degradations,
		Error:          v.ErrorMessage,
		ElapsedSeconds: v.Elapsed().Seconds(),
	}
}

func runStatusKind(status runlog.RunStatus) statusKind {
	switch status {
	case runlog.RunCompleted:
		return statusOK
	case runlog.RunPartial:
		return statusError
	case runlog.RunAborted:
		return statusWarn
	default:
		return statusInfo
	}
}

func renderRunList(runs []runlog.Run, colorize bool) string {
	headers := []string{"Run", "Started", "Status", "Videos", "Failed", "Target", "TTS"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			colorStatus(string(r.Status), runStatusKind(r.Status), colorize),
			fmt.Sprintf("%d", r.VideoCount),
			fmt.Sprintf("%d", r.FailureCount),
			r.TargetLanguage,
			yesNo(r.TTSEnabled),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderRunDetail(run runlog.Run, videos []runlog.Video, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:      %s\n", run.ID)
	fmt.Fprintf(&b, "Status:   %s\n", colorStatus(string(run.Status), runStatusKind(run.Status), colorize))
	fmt.Fprintf(&b, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC1123))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Finished: %s\n", run.FinishedAt.Local().Format(time.RFC1123))
	}
	if run.TargetLanguage != "" {
		fmt.Fprintf(&b, "Target:   %s\n", run.TargetLanguage)
	}
	fmt.Fprintf(&b, "TTS:      %s\n", yesNo(run.TTSEnabled))
	if len(videos) == 0 {
		b.WriteString("No videos recorded")
		return b.String()
	}

	headers := []string{"Video", "Status", "Language", "Segments", "Clips", "Elapsed", "Notes"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		kind := statusOK
		switch {
		case v.Status == runlog.VideoPartialFailure:
			kind = statusError
		case len(v.Degradations) > 0:
			kind = statusWarn
		}
		notes := append([]string(nil), v.Degradations...)
		if v.ErrorMessage != "" {
			notes = append([]string{v.ErrorMessage}, notes...)
		}
		lang := v.SourceLanguage
		if v.Translated && run.TargetLanguage != "" {
			lang += " -> " + run.TargetLanguage
		}
		rows = append(rows, []string{
			filepath.Base(v.SourcePath),
			colorStatus(string(v.Status), kind, colorize),
			lang,
			fmt.Sprintf("%d", v.SegmentCount),
			fmt.Sprintf("%d", v.ArtifactCount),
			v.Elapsed().Round(time.Second).String(),
			strings.Join(notes, "\n"),
		})
	}
	b.WriteString(renderTable(headers, rows, aligns))
	return b.String()
}
