package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, status, started_at, video_count, target_language, tts_enabled)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, string(RunRunning), formatTime(run.StartedAt), run.VideoCount,
		nullString(run.TargetLanguage), boolToInt(run.TTSEnabled),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordVideo stores the outcome of one video under its run.
func (s *Store) RecordVideo(ctx context.Context, v Video) (int64, error) {
	outputs, err := encodeList(v.Outputs)
	if err != nil {
		return 0, err
	}
	degradations, err := encodeList(v.Degradations)
	if err != nil {
		return 0, err
	}
	res, err := s.exec(ctx,
		`INSERT INTO videos (run_id, source_path, status, source_language, translated,
			segment_count, artifact_count, outputs_json, degradations_json, error_message,
			started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.RunID, v.SourcePath, string(v.Status), nullString(v.SourceLanguage), boolToInt(v.Translated),
		v.SegmentCount, v.ArtifactCount, outputs, degradations, nullString(v.ErrorMessage),
		formatTime(v.StartedAt), formatTime(v.FinishedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("record video: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun sets the terminal status and failure count of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, failures int, finishedAt time.Time) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, failure_count = ?, finished_at = ? WHERE id = ?`,
		string(status), failures, formatTime(finishedAt), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, status, started_at, finished_at, video_count, failure_count, target_language, tts_enabled`

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by ID or unique ID prefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2`,
		idOrPrefix, strings.ReplaceAll(idOrPrefix, "%", "")+"%",
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()
	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == idOrPrefix {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run prefix %q is ambiguous", idOrPrefix)
	}
}

// RunVideos returns the recorded videos of a run in processing order.
func (s *Store) RunVideos(ctx context.Context, runID string) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, source_path, status, source_language, translated, segment_count,
			artifact_count, outputs_json, degradations_json, error_message, started_at, finished_at
		 FROM videos WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()
	var videos []Video
	for rows.Next() {
		var (
			v                           Video
			status                      string
			lang, outputs, degr, errMsg sql.NullString
			translated                  int
			started, finished           string
		)
		if err := rows.Scan(&v.ID, &v.RunID, &v.SourcePath, &status, &lang, &translated,
			&v.SegmentCount, &v.ArtifactCount, &outputs, &degr, &errMsg, &started, &finished); err != nil {
			return nil, err
		}
		v.Status = VideoStatus(status)
		v.SourceLanguage = lang.String
		v.Translated = translated != 0
		v.ErrorMessage = errMsg.String
		v.StartedAt = parseTime(started)
		v.FinishedAt = parseTime(finished)
		if v.Outputs, err = decodeList(outputs); err != nil {
			return nil, err
		}
		if v.Degradations, err = decodeList(degr); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// Prune deletes runs that started before cutoff along with their videos.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	// foreign_keys is per connection, so cascade explicitly.
	if _, err := s.exec(ctx,
		`DELETE FROM videos WHERE run_id IN (SELECT id FROM runs WHERE started_at < ? AND status != ?)`,
		formatTime(cutoff), string(RunRunning)); err != nil {
		return 0, fmt.Errorf("prune videos: %w", err)
	}
	res, err := s.exec(ctx, `DELETE FROM runs WHERE started_at < ? AND status != ?`, formatTime(cutoff), string(RunRunning))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		status   string
		started  string
		finished sql.NullString
		target   sql.NullString
		tts      int
	)
	if err := row.Scan(&run.ID, &status, &started, &finished, &run.VideoCount, &run.FailureCount, &target, &tts); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	run.TargetLanguage = target.String
	run.TTSEnabled = tts != 0
	return run, nil
}

// timeLayout is fixed-width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeList(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode list: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeList(value sql.NullString) ([]string, error) {
	if !value.Valid || strings.TrimSpace(value.String) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(value.String), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}
