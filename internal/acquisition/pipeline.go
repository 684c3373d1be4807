package acquisition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/whisper-client/internal/ingestion"
	"github.com/jonathan/whisper-client/internal/observability"
	"github.com/jonathan/whisper-client/internal/types"
)

const (
	DefaultDownloader  = "yt-dlp"
	DefaultConverter   = "ffmpeg"
	DefaultAudioFormat = "mp3"

	stagingPattern = ".whisper-download-*"
)

// incompleteSuffixes mark files the downloader leaves behind mid-transfer.
var incompleteSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

// Options configures a Pipeline. Zero values take the package defaults.
type Options struct {
	Downloader  string
	Converter   string
	AudioFormat string
	Runner      Runner
	Logger      logrus.FieldLogger
}

// Pipeline runs download then conversion for one remote media URL.
type Pipeline struct {
	downloader  string
	converter   string
	audioFormat string
	runner      Runner
	log         logrus.FieldLogger
}

// NewPipeline creates a pipeline.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		downloader:  opts.Downloader,
		converter:   opts.Converter,
		audioFormat: strings.TrimPrefix(strings.ToLower(opts.AudioFormat), "."),
		runner:      opts.Runner,
		log:         observability.OrDiscard(opts.Logger),
	}
	if p.downloader == "" {
		p.downloader = DefaultDownloader
	}
	if p.converter == "" {
		p.converter = DefaultConverter
	}
	if p.audioFormat == "" {
		p.audioFormat = DefaultAudioFormat
	}
	if p.runner == nil {
		p.runner = &ExecRunner{}
	}
	return p
}

// Check verifies that both external tools can be executed.
func (p *Pipeline) Check(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.checkTool(ctx, p.downloader, "--version") })
	g.Go(func() error { return p.checkTool(ctx, p.converter, "-version") })
	return g.Wait()
}

func (p *Pipeline) checkTool(ctx context.Context, name string, versionFlag string) error {
	res, err := p.runner.Run(ctx, name, versionFlag)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolUnavailable, name, err)
	}
	version, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	p.log.WithFields(logrus.Fields{"tool": name, "version": version}).Debug("Found external tool")
	return nil
}

// StageFunc is notified on every stage transition.
type StageFunc func(stage Stage)

// Request describes one acquisition.
type Request struct {
	URL       string
	OutputDir string
	KeepAudio bool
	KeepVideo bool
	OnStage   StageFunc
}

// Result is the outcome of a pipeline run. Callers must call Cleanup once
// the audio has been consumed.
//
// Audio is the file to submit. Unless the request kept it, it lives in a
// staging directory that Cleanup removes. Destination is the path in the
// output directory the audio is kept under, or would have been; reports
// belong next to it.
type Result struct {
	Audio       string
	Destination string
	Artifacts   []Artifact
	Logs        []CommandLog
	State       Stage

	staging string
	log     logrus.FieldLogger
	mu      sync.Mutex
}

// Cleanup deletes every temporary artifact and the staging directory.
// Failures are logged, never returned. Calling it again is a no-op.
func (r *Result) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := observability.OrDiscard(r.log)
	for _, a := range r.Artifacts {
		if !a.Temporary {
			continue
		}
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("path", a.Path).Warn("Failed to remove temporary file")
		}
	}
	if r.staging != "" {
		if err := os.RemoveAll(r.staging); err != nil {
			log.WithError(err).WithField("path", r.staging).Warn("Failed to remove staging directory")
		}
	}
}

func (r *Result) addArtifact(a Artifact) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Artifacts = append(r.Artifacts, a)
	return len(r.Artifacts) - 1
}

// Run downloads req.URL and converts it to audio in req.OutputDir. On
// failure or cancellation every temporary artifact is removed before Run
// returns; the returned Result is never nil.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{State: StageIdle, log: p.log}
	log := p.log.WithField("url", req.URL)

	transition := func(next Stage) {
		log.WithFields(logrus.Fields{"from": res.State, "to": next}).Debug("Pipeline stage changed")
		res.State = next
		if req.OnStage != nil {
			req.OnStage(next)
		}
	}
	fail := func(err error) (*Result, error) {
		transition(StageFailed)
		res.Cleanup()
		return res, err
	}
	cancelled := func(stage Stage) (*Result, error) {
		transition(StageCancelled)
		res.Cleanup()
		log.WithField("stage", stage).Info("Acquisition cancelled")
		return res, fmt.Errorf("%s: %w: %w", stage, types.ErrCancelled, context.Cause(ctx))
	}

	if err := ingestion.ValidateMediaURL(req.URL); err != nil {
		return fail(err)
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return fail(errors.New("output directory is required"))
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return fail(fmt.Errorf("failed to create output directory %s: %w", req.OutputDir, err))
	}
	staging, err := os.MkdirTemp(req.OutputDir, stagingPattern)
	if err != nil {
		return fail(fmt.Errorf("failed to create staging directory: %w", err))
	}
	res.staging = staging

	if ctx.Err() != nil {
		return cancelled(StageIdle)
	}

	// Download.
	transition(StageDownloading)
	outputTemplate := filepath.Join(staging, "%(title)s.%(ext)s")
	if _, err := p.run(ctx, res, StageDownloading, p.downloader,
		"--no-playlist", "--restrict-filenames", "-o", outputTemplate, req.URL); err != nil {
		if ctx.Err() != nil {
			return cancelled(StageDownloading)
		}
		return fail(err)
	}

	video, err := findVideo(staging)
	if err != nil {
		return fail(&StageError{Stage: StageDownloading, Message: err.Error(), Output: lastOutput(res)})
	}
	if req.KeepVideo {
		kept := filepath.Join(req.OutputDir, filepath.Base(video))
		if err := claim(kept); err != nil {
			return fail(&StageError{Stage: StageDownloading, Message: "cannot keep video", Cause: err})
		}
		if err := os.Rename(video, kept); err != nil {
			return fail(fmt.Errorf("failed to move video into %s: %w", req.OutputDir, err))
		}
		video = kept
	}
	res.addArtifact(Artifact{Path: video, Stage: StageDownloading, Temporary: !req.KeepVideo})
	log.WithField("video", video).Debug("Download finished")

	if ctx.Err() != nil {
		return cancelled(StageDownloading)
	}

	// Convert inside the staging directory. Only a verified, kept audio file
	// is moved into the output directory, and never over an existing file.
	transition(StageConverting)
	stem := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
	if stem == "" {
		stem = "audio"
	}
	audioName := stem + "." + p.audioFormat
	res.Destination = filepath.Join(req.OutputDir, audioName)
	if req.KeepAudio {
		if err := claim(res.Destination); err != nil {
			return fail(&StageError{Stage: StageConverting, Message: "cannot keep audio", Cause: err})
		}
	}

	audio := filepath.Join(staging, audioName)
	audioIdx := res.addArtifact(Artifact{Path: audio, Stage: StageConverting, Temporary: true})

	if _, err := p.run(ctx, res, StageConverting, p.converter,
		"-hide_banner", "-nostdin", "-y", "-i", video, "-vn", audio); err != nil {
		if ctx.Err() != nil {
			return cancelled(StageConverting)
		}
		return fail(err)
	}

	info, err := os.Stat(audio)
	if err != nil || info.Size() == 0 {
		return fail(&StageError{Stage: StageConverting, Message: "no audio file produced", Output: lastOutput(res), Cause: err})
	}

	if req.KeepAudio {
		if err := claim(res.Destination); err != nil {
			return fail(&StageError{Stage: StageConverting, Message: "cannot keep audio", Cause: err})
		}
		if err := os.Rename(audio, res.Destination); err != nil {
			return fail(fmt.Errorf("failed to move audio into %s: %w", req.OutputDir, err))
		}
		audio = res.Destination
		res.mu.Lock()
		res.Artifacts[audioIdx] = Artifact{Path: audio, Stage: StageConverting, Temporary: false}
		res.mu.Unlock()
	}

	res.Audio = audio
	transition(StageReady)
	log.WithFields(logrus.Fields{"audio": audio, "bytes": info.Size()}).Info("Audio ready")
	return res, nil
}

// claim fails when path already exists so a kept artifact never replaces a user's file.
func claim(path string) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%s already exists", path)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

// run invokes one tool and records its log. A failure is returned as a StageError.
func (p *Pipeline) run(ctx context.Context, res *Result, stage Stage, name string, args ...string) (CommandResult, error) {
	p.log.WithFields(logrus.Fields{"stage": stage, "tool": name}).Debugf("Running %s %s", name, strings.Join(args, " "))

	out, err := p.runner.Run(ctx, name, args...)
	res.Logs = append(res.Logs, CommandLog{Stage: stage, Name: name, Args: args, Result: out})
	if err != nil {
		msg := fmt.Sprintf("%s exited with code %d", name, out.ExitCode)
		if out.ExitCode < 0 {
			msg = fmt.Sprintf("%s could not be run", name)
		}
		return out, &StageError{Stage: stage, Message: msg, Output: out.Output(), Cause: err}
	}
	return out, nil
}

// findVideo returns the single finished file the downloader left in dir.
func findVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read download directory: %w", err)
	}

	var found []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") || isIncomplete(entry.Name()) {
			continue
		}
		found = append(found, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(found)

	switch len(found) {
	case 0:
		return "", errors.New("downloader produced no output file")
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = filepath.Base(f)
		}
		return "", fmt.Errorf("expected exactly one video file, found %d: %s", len(found), strings.Join(names, ", "))
	}
}

func isIncomplete(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range incompleteSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func lastOutput(res *Result) string {
	if len(res.Logs) == 0 {
		return ""
	}
	return res.Logs[len(res.Logs)-1].Result.Output()
}
