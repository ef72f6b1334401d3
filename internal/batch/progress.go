package batch

import (
	"fmt"
	"io"
	"time"
)

// Progress tracks batch progress.
type Progress struct {
	Phase     string
	Handle    string
	Total     int
	Analyzed  int
	Failed    int
	Stored    int
	StartTime time.Time
	Error     error
}

// ProgressFunc is called after every state change.
// Calls are serialized.
type ProgressFunc func(Progress)

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// Printer returns a ProgressFunc that writes a single updating status line to w.
func Printer(w io.Writer) ProgressFunc {
	return func(p Progress) {
		switch p.Phase {
		case "list":
			fmt.Fprintf(w, "[List] %s: %d games\n", p.Handle, p.Total)
		case "analyze":
			fmt.Fprintf(w, "\r[Analyze] %d / %d games, %d failed", p.Analyzed+p.Failed, p.Total, p.Failed)
		case "done":
			fmt.Fprintf(w, "\n[Done] %d analyzed, %d failed, %d stored (%s)\n",
				p.Analyzed, p.Failed, p.Stored, FormatDuration(time.Since(p.StartTime)))
		case "error":
			fmt.Fprintf(w, "\n[Error] %v\n", p.Error)
		}
	}
}
