package history

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/backmassage/magickbatch/internal/display"
)

// PrintRuns writes a column-aligned table of past runs, newest first.
func PrintRuns(w io.Writer, records []Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	header := fmt.Sprintf("%-8s  %-19s  %8s  %5s  %5s  %5s  %-12s  %s",
		"ID", "Started", "Took", "Jobs", "OK", "Fail", "Size", "Status")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("─", len(header)))
	for _, r := range records {
		took := "-"
		if !r.FinishedAt.IsZero() {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%-8s  %-19s  %8s  %5d  %5d  %5d  %-12s  %s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			took,
			r.Stats.Jobs, r.Stats.Converted, r.Stats.Failed,
			display.FormatBytesWithSign(-r.Stats.SpaceSaved()),
			status(r))
	}
}

func status(r Record) string {
	switch {
	case r.Errors > 0 && !r.Completed && r.Stats.Jobs == 0:
		return "aborted"
	case !r.Completed:
		return "no files"
	case r.Stats.Failed > 0:
		return "partial"
	default:
		return "ok"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
