package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hardsub/internal/batch"
	"hardsub/internal/services"
)

func renderRunSummary(report batch.Report, colorize bool) string {
	rows := make([][]string, 0, len(report.Jobs))
	for _, jr := range report.Jobs {
		detail := shortPath(jr.Result.OutputPath)
		switch jr.Status {
		case services.StatusFailed, services.StatusInterrupted:
			if jr.Err != nil {
				detail = jr.Err.Error()
			}
		case services.StatusEmpty:
			detail = "no subtitles found"
		case services.StatusSkipped:
			detail = "not started"
		}
		if n := len(jr.Result.Issues); n > 0 && jr.Status == services.StatusSucceeded {
			detail = fmt.Sprintf("%s (%d validation issue(s))", detail, n)
		}
		rows = append(rows, []string{
			strconv.Itoa(jr.Index),
			shortPath(jr.Job.Video),
			colorStatus(jr.Status, colorize),
			strconv.Itoa(jr.Result.Cues),
			formatElapsed(jr.Duration()),
			detail,
		})
	}

	counts := report.Counts()
	table := renderTable(tableSpec{
		Title:   "Run " + report.RunID,
		Headers: []string{"#", "Video", "Status", "Cues", "Elapsed", "Output"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		Footer: []string{
			"",
			fmt.Sprintf("%d video(s)", len(report.Jobs)),
			fmt.Sprintf("%d ok", counts[services.StatusSucceeded]),
			strconv.Itoa(report.Cues()),
			formatElapsed(report.Finished.Sub(report.Started)),
			"",
		},
		MaxWidths: []int{0, 40, 0, 0, 0, 60},
	})

	var b strings.Builder
	b.WriteString(table)
	b.WriteString("\n")
	b.WriteString(statusLine(counts, report.Progress, report.Cancelled))
	return b.String()
}

func statusLine(counts map[services.Status]int, progress int, cancelled bool) string {
	parts := make([]string, 0, 6)
	for _, status := range []services.Status{
		services.StatusSucceeded,
		services.StatusEmpty,
		services.StatusFailed,
		services.StatusInterrupted,
		services.StatusSkipped,
	} {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	line := fmt.Sprintf("Progress %d%%: %s", progress, strings.Join(parts, ", "))
	if cancelled {
		line += " (cancelled)"
	}
	return line
}

type runJSON struct {
	RunID     string    `json:"run_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Cancelled bool      `json:"cancelled"`
	Progress  int       `json:"progress"`
	Cues      int       `json:"cues"`
	Jobs      []jobJSON `json:"jobs"`
}

type jobJSON struct {
	Index     int      `json:"index"`
	Video     string   `json:"video"`
	Status    string   `json:"status"`
	Output    string   `json:"output,omitempty"`
	Cues      int      `json:"cues"`
	Frames    int      `json:"frames_inspected"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Error     string   `json:"error,omitempty"`
	Issues    []string `json:"issues,omitempty"`
}

func newRunJSON(report batch.Report) runJSON {
	out := runJSON{
		RunID:     report.RunID,
		Started:   report.Started,
		Finished:  report.Finished,
		Cancelled: report.Cancelled,
		Progress:  report.Progress,
		Cues:      report.Cues(),
		Jobs:      make([]jobJSON, 0, len(report.Jobs)),
	}
	for _, jr := range report.Jobs {
		job := jobJSON{
			Index:     jr.Index,
			Video:     jr.Job.Video,
			Status:    string(jr.Status),
			Cues:      jr.Result.Cues,
			Frames:    jr.Result.Stats.FramesInspected,
			ElapsedMS: jr.Duration().Milliseconds(),
			Issues:    jr.Result.Issues,
		}
		if jr.Status == services.StatusSucceeded {
			job.Output = jr.Result.OutputPath
		}
		if jr.Err != nil && jr.Status != services.StatusEmpty {
			job.Error = jr.Err.Error()
		}
		out.Jobs = append(out.Jobs, job)
	}
	return out
}
