package main

import (
	"io"
	"os"
	"reelcast/internal/models"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

func renderJobs(jobs []models.Job, colorize bool, now time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Status", "Scheduled", "Prompt", "Result"})

	for _, job := range jobs {
		result := job.PostID
		if job.Status == models.StatusFailed {
			result = job.Error
		}
		tw.AppendRow(table.Row{
			job.ID,
			statusLabel(job.Status, colorize),
			scheduledLabel(job.ScheduledTime, now),
			truncate(job.Prompt, 40),
			truncate(result, 40),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func statusLabel(status models.JobStatus, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case models.StatusCompleted:
		return text.FgGreen.Sprint(status)
	case models.StatusFailed:
		return text.FgRed.Sprint(status)
	default:
		return text.FgYellow.Sprint(status)
	}
}

func scheduledLabel(at, now time.Time) string {
	local := at.Local().Format("2006-01-02 15:04")
	if at.After(now) {
		return local + " (in " + at.Sub(now).Round(time.Minute).String() + ")"
	}
	return local
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
