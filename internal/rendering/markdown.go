package rendering

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/jonathan/whisper-client/internal/types"
)

// TimestampLayout formats the transcription time in reports.
const TimestampLayout = "2006-01-02 15:04:05"

const defaultTemplate = `{{.Text}}

---

## Audio File Information

- **Source File:** {{escape .SourceFile}}
{{if .FileSize}}- **File Size:** {{.FileSize}} bytes
{{end}}- **Duration:** {{.Duration}}
{{if .Transcribed}}- **Transcribed:** {{.Transcribed}}
{{end}}`

// ReportData is the data passed to the report template.
type ReportData struct {
	JobID       string
	Text        string
	SourceFile  string
	FileSize    int64
	Duration    string
	Transcribed string
	Segments    []types.Segment
}

// Reporter renders completed jobs to <source dir>/<source stem>.md.
type Reporter struct {
	tmpl *template.Template
}

// NewReporter creates a reporter. An empty templatePath uses the built-in layout.
func NewReporter(templatePath string) (*Reporter, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if templatePath == "" {
		tmpl, err = newTemplate(defaultTemplate)
	} else {
		tmpl, err = parseTemplate(templatePath)
	}
	if err != nil {
		return nil, err
	}
	return &Reporter{tmpl: tmpl}, nil
}

// ReportPath returns where the report for sourceFile is written.
func ReportPath(sourceFile string) string {
	base := filepath.Base(sourceFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(sourceFile), stem+".md")
}

// Write renders job and saves it next to its source file.
func (r *Reporter) Write(job types.Job) (string, error) {
	content, err := r.Render(job)
	if err != nil {
		return "", err
	}

	path := ReportPath(job.SourceFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", &RenderError{
			Message: fmt.Sprintf("failed to write report: %s", path),
			Cause:   err,
		}
	}
	return path, nil
}

// Render produces the report text for a completed job.
func (r *Reporter) Render(job types.Job) (string, error) {
	if job.Result == nil {
		return "", &RenderError{Message: fmt.Sprintf("job %s has no transcript", job.ID)}
	}

	var result strings.Builder
	if err := r.tmpl.Execute(&result, buildReportData(job)); err != nil {
		return "", &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return result.String(), nil
}

// parseTemplate reads and parses a report template file
func parseTemplate(templatePath string) (*template.Template, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Message: fmt.Sprintf("template file not found: %s", templatePath),
				Cause:   err,
			}
		}
		return nil, &TemplateError{
			Message: fmt.Sprintf("failed to read template file: %s", templatePath),
			Cause:   err,
		}
	}
	return newTemplate(string(content))
}

func newTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"escape":    EscapeMarkdown,
		"timestamp": FormatTimestamp,
	}).Parse(text)
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}
	return tmpl, nil
}

func buildReportData(job types.Job) ReportData {
	data := ReportData{
		JobID:      job.ID,
		Text:       job.Result.Text,
		SourceFile: filepath.Base(job.SourceFile),
		Duration:   FormatDuration(job.Result.Duration()),
		Segments:   job.Result.Segments,
	}

	if job.Last != nil && job.Last.FileInfo != nil {
		data.FileSize = job.Last.FileInfo.Size
	} else if info, err := os.Stat(job.SourceFile); err == nil {
		data.FileSize = info.Size()
	}

	submitted := job.SubmittedAt
	if job.Last != nil && job.Last.CreatedAt != nil {
		submitted = job.Last.Created()
	}
	if !submitted.IsZero() {
		data.Transcribed = submitted.UTC().Format(TimestampLayout)
	}
	return data
}

// FormatDuration renders seconds as m:ss, rounded to the nearest second.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatTimestamp renders a segment offset in seconds as [m:ss.s].
func FormatTimestamp(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	minutes := int(d / time.Minute)
	rest := (d % time.Minute).Seconds()
	return fmt.Sprintf("[%d:%04.1f]", minutes, rest)
}
