// Package acquisition downloads remote media and extracts its audio track
// with external tools, tracking every file it creates so none are left behind.
package acquisition

// Stage is the acquisition pipeline state.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageDownloading Stage = "downloading"
	StageConverting  Stage = "converting"
	StageReady       Stage = "ready"
	StageFailed      Stage = "error"
	StageCancelled   Stage = "cancelled"
)

// IsTerminal reports whether the pipeline can make no further progress.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageReady, StageFailed, StageCancelled:
		return true
	}
	return false
}

// Artifact is a local file produced by a stage.
type Artifact struct {
	Path      string
	Stage     Stage
	Temporary bool
}

// CommandLog records one tool invocation for diagnostics.
type CommandLog struct {
	Stage  Stage
	Name   string
	Args   []string
	Result CommandResult
}
