// Package observability provides formatted terminal output and logger setup for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/whisper-client/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// timeLayout formats job timestamps
	timeLayout = "2006-01-02 15:04:05"
)

var titleCaser = cases.Title(language.English)

// Printer handles formatted output for command results
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// StateSymbol returns the status marker shown next to a job state.
func StateSymbol(state types.JobState) string {
	switch state {
	case types.StateCompleted:
		return "✓"
	case types.StateFailed:
		return "✗"
	case types.StateTerminated, types.StateCancelled:
		return "⊘"
	default:
		return "⋯"
	}
}

// StateLabel returns a title-cased state name for display.
func StateLabel(state types.JobState) string {
	return titleCaser.String(string(state))
}

func formatCreated(snap *types.JobSnapshot) string {
	created := snap.Created()
	if created.IsZero() {
		return "Unknown"
	}
	return created.UTC().Format(timeLayout)
}

// PrintJobs lists jobs one per line; verbose adds creation time and message.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintJobs(jobs []types.JobSnapshot, verbose bool) {
	fmt.Fprintln(p.out, "\nJobs:")
	if len(jobs) == 0 {
		fmt.Fprintln(p.out, "  (none)")
		return
	}

	for i := range jobs {
		job := &jobs[i]
		fmt.Fprintf(p.out, "%s %s - %s %s\n", StateSymbol(job.State()), job.JobID, job.Status, job.Filename)
		if verbose {
			fmt.Fprintf(p.out, "   Created: %s\n", formatCreated(job))
			if job.Message != "" {
				fmt.Fprintf(p.out, "   Message: %s\n", job.Message)
			}
			fmt.Fprintln(p.out)
		}
	}
}

// PrintStatus prints the detail view of one job.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStatus(job *types.JobSnapshot, verbose bool) {
	if job == nil {
		return
	}

	fmt.Fprintf(p.out, "\n%s Status for job %s:\n", StateSymbol(job.State()), job.JobID)
	fmt.Fprintf(p.out, "Status: %s\n", job.Status)
	if job.Filename != "" {
		fmt.Fprintf(p.out, "File: %s\n", job.Filename)
	}
	if job.CreatedAt != nil {
		fmt.Fprintf(p.out, "Created: %s\n", formatCreated(job))
	}
	if job.Progress != nil && !job.State().IsTerminal() {
		fmt.Fprintf(p.out, "Progress: %.1f%% (%d/%d chunks)\n",
			job.Progress.Percentage, job.Progress.ProcessedChunks, job.Progress.TotalChunks)
	}
	if job.Message != "" {
		fmt.Fprintf(p.out, "Message: %s\n", job.Message)
	}

	if verbose && job.State() == types.StateCompleted && job.Result != nil {
		p.PrintTranscript(job.Result)
	}
}

// PrintTranscript prints the full text followed by one line per segment.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTranscript(tr *types.Transcript) {
	if tr == nil {
		return
	}

	fmt.Fprintln(p.out, "\nTranscription:")
	fmt.Fprintf(p.out, "%s\n\n", strings.TrimSpace(tr.Text))

	fmt.Fprintln(p.out, "Segments:")
	for _, seg := range tr.Segments {
		fmt.Fprintf(p.out, "%gs -> %gs: %s\n", seg.Start, seg.End, strings.TrimSpace(seg.Text))
	}
	fmt.Fprintln(p.out)
}

// PrintItemStart announces item index (1-based) of total.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintItemStart(index, total int, source string) {
	fmt.Fprintf(p.out, "\n→ Processing %d of %d: %s\n", index, total, source)
}

// PrintItemResult reports how one item ended. detail is shown for non-completed items,
// and reportPath for completed ones when a report was written.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintItemResult(source string, state types.JobState, detail, reportPath string) {
	switch state {
	case types.StateCompleted:
		if reportPath != "" {
			fmt.Fprintf(p.out, "✓ Saved transcript to: %s\n", reportPath)
		} else {
			fmt.Fprintf(p.out, "✓ Transcribed %s\n", source)
		}
	case types.StateTerminated:
		fmt.Fprintf(p.out, "%s Job for %s was terminated by the service: %s\n", StateSymbol(state), source, detail)
	case types.StateCancelled:
		fmt.Fprintf(p.out, "%s Cancelled %s\n", StateSymbol(state), source)
	default:
		fmt.Fprintf(p.out, "%s Error processing %s: %s\n", StateSymbol(state), source, detail)
	}
}

// PrintSummary prints per-state counts for a batch run.
func (p *Printer) PrintSummary(total int, counts map[types.JobState]int, elapsed time.Duration) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Items:    %d\n", total))
	for _, state := range types.AllStates {
		if !state.IsTerminal() {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-10s%d\n", StateLabel(state)+":", counts[state]))
	}
	sb.WriteString(fmt.Sprintf("Elapsed:  %s", elapsed.Round(time.Second)))

	p.printBox("BATCH SUMMARY", sb.String())
}

// PrintServiceUnavailable prints the hint shown when the health check fails.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintServiceUnavailable(serviceURL string, err error) {
	fmt.Fprintf(p.out, "✗ Error: %v\n", err)
	fmt.Fprintf(p.out, "↳ Is the service running at %s? Start it with: docker compose up -d\n", serviceURL)
}

// PrintStage announces an acquisition stage such as "downloading".
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStage(stage string) {
	fmt.Fprintf(p.out, "⋯ %s\n", titleCaser.String(stage))
}

// PrintToolUnavailable prints the hint shown when yt-dlp or ffmpeg cannot be run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintToolUnavailable(err error) {
	fmt.Fprintf(p.out, "✗ Error: %v\n", err)
	fmt.Fprintln(p.out, "↳ Remote media needs yt-dlp and ffmpeg on PATH, or set \"downloader\" and \"converter\" in the config file.")
}

// PrintTerminated acknowledges a terminate request.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTerminated(job *types.JobSnapshot) {
	if job == nil {
		return
	}
	msg := job.Message
	if msg == "" {
		msg = "termination requested"
	}
	fmt.Fprintf(p.out, "%s Job %s: %s\n", StateSymbol(types.StateTerminated), job.JobID, msg)
}

// KeyValue is one row of a key/value box.
type KeyValue struct {
	Key   string
	Value string
}

// PrintKeyValues prints rows as an aligned box.
func (p *Printer) PrintKeyValues(title string, rows []KeyValue) {
	width := 0
	for _, row := range rows {
		if len(row.Key) > width {
			width = len(row.Key)
		}
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = fmt.Sprintf("%-*s  %s", width+1, row.Key+":", row.Value)
	}
	p.printBox(title, strings.Join(lines, "\n"))
}
