package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuild/internal/assets"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/observability"
	"git.home.luguber.info/inful/sitebuild/internal/pages"
	"git.home.luguber.info/inful/sitebuild/internal/templates"
)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	recorder metrics.Recorder
	newID    func() string
	now      func() time.Time
}

var _ Service = (*DefaultService)(nil)

// NewService creates a DefaultService that records no metrics.
func NewService() *DefaultService {
	return &DefaultService{
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder. A nil recorder restores the no-op one.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// run carries the state of one build through its stages.
type run struct {
	svc      *DefaultService
	req      Request
	out      io.Writer
	result   *Result
	fragment string
}

// Run executes the complete build pipeline. Cancellation is observed between
// stages only; a stage that has started runs to completion or failure.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	root := req.Root
	if root == "" {
		root = "."
	}
	req.Root = root

	result := &Result{
		BuildID:        s.newID(),
		Root:           root,
		StageDurations: map[Stage]time.Duration{},
		StartTime:      start,
	}

	ctx = observability.WithBuildID(ctx, result.BuildID)
	ctx = observability.WithRoot(ctx, root)

	if req.Config == nil {
		return s.finish(result, StatusFailed, "", errors.InternalError("site table required", nil))
	}
	result.OutputPath = req.Config.OutputPath(root)
	if err := checkOutputPath(root, result.OutputPath); err != nil {
		return s.finish(result, StatusFailed, "", err)
	}

	out := req.Out
	if out == nil {
		out = io.Discard
	}
	r := &run{svc: s, req: req, out: out, result: result}

	steps := []struct {
		stage Stage
		fn    func() error
	}{
		{StageFragment, r.loadFragment},
		{StageClean, r.clean},
		{StagePages, r.processPages},
		{StageAssets, r.copyAssets},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			s.recorder.IncStageResult(string(step.stage), metrics.ResultCanceled)
			observability.WarnContext(observability.WithStage(ctx, string(step.stage)), "Build canceled before stage")
			return s.finish(result, StatusCancelled, step.stage, errors.BuildCanceled(string(step.stage), err))
		}

		stageCtx := observability.WithStage(ctx, string(step.stage))
		stageStart := s.now()
		observability.DebugContext(stageCtx, "Stage started")

		if err := step.fn(); err != nil {
			s.recorder.IncStageResult(string(step.stage), metrics.ResultFatal)
			observability.ErrorContext(stageCtx, "Stage failed", logfields.Error(err))
			return s.finish(result, StatusFailed, step.stage, err)
		}

		elapsed := s.now().Sub(stageStart)
		result.StageDurations[step.stage] = elapsed
		s.recorder.ObserveStageDuration(string(step.stage), elapsed)
		s.recorder.IncStageResult(string(step.stage), metrics.ResultSuccess)
		observability.DebugContext(stageCtx, "Stage complete",
			logfields.DurationMS(float64(elapsed)/float64(time.Millisecond)))
	}

	_, _ = fmt.Fprintf(out, "Processed %d HTML files\n", len(result.Pages))
	_, _ = fmt.Fprintln(out, "Build complete!")

	observability.InfoContext(ctx, "Build complete",
		slog.Int("pages", len(result.Pages)),
		slog.Int("asset_files", result.Assets.Files),
		slog.Int("asset_dirs", result.Assets.Dirs),
		logfields.Output(result.OutputPath))
	return s.finish(result, StatusSuccess, "", nil)
}

func (s *DefaultService) finish(result *Result, status Status, stage Stage, err error) (*Result, error) {
	result.Status = status
	result.FailedStage = stage
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveBuildDuration(result.Duration)

	switch status {
	case StatusSuccess:
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	case StatusCancelled:
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	default:
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}
	return result, err
}

func (r *run) loadFragment() error {
	fragment, err := templates.LoadFragment(r.req.Config.FragmentPath(r.req.Root))
	if err != nil {
		return err
	}
	r.fragment = fragment
	_, _ = fmt.Fprintln(r.out, "Building static site with shared head content...")
	return nil
}

func (r *run) clean() error {
	if err := os.RemoveAll(r.result.OutputPath); err != nil {
		return errors.OutputCleanFailed(r.result.OutputPath, err)
	}
	return nil
}

func (r *run) processPages() error {
	found, err := pages.FindPages(r.req.Root, r.req.Config)
	if err != nil {
		return errors.DiscoveryFailed(err)
	}

	proc := pages.NewProcessor(r.req.Root, r.req.Config.OutputDir, r.fragment, r.req.Config, r.out)
	r.result.Pages = make([]pages.Page, 0, len(found))
	for _, p := range found {
		page, err := proc.Process(p)
		if err != nil {
			return err
		}
		r.result.Pages = append(r.result.Pages, page)
	}
	r.svc.recorder.AddPagesProcessed(len(r.result.Pages))
	return nil
}

func (r *run) copyAssets() error {
	copier := assets.NewCopier(r.req.Config, r.req.Config.OutputDir, r.out)
	res, err := copier.CopyAssets(r.req.Root, r.result.OutputPath)
	r.result.Assets = res
	r.svc.recorder.AddAssetsCopied(res.Files+res.Tree, res.Bytes)
	return err
}

// checkOutputPath refuses an output root that is the source root or one of
// its ancestors, since the clean stage removes it.
func checkOutputPath(root, output string) error {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return errors.InternalError("resolve source root", err)
	}
	outAbs, err := filepath.Abs(output)
	if err != nil {
		return errors.InternalError("resolve output root", err)
	}
	if rootAbs == outAbs || strings.HasPrefix(rootAbs, outAbs+string(filepath.Separator)) || outAbs == string(filepath.Separator) {
		return errors.ValidationFailed("output_dir", config.EnvOutputDir+" or output_dir must not contain the source root")
	}
	return nil
}
