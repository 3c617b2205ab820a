package build

import (
	"context"
	"io"
	"time"

	"git.home.luguber.info/inful/sitebuild/internal/assets"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/pages"
)

// Service is the canonical interface for executing site builds.
type Service interface {
	// Run executes a complete build: fragment → clean → pages → assets.
	// The returned Result is non-nil even when err is set.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a build.
type Request struct {
	// Root is the source directory. Empty means the working directory.
	Root string

	// Config is the loaded site table for this build.
	Config *config.Config

	// Out receives user-facing progress lines. Nil discards them.
	Out io.Writer
}

// Stage names a step of the build pipeline.
type Stage string

const (
	StageFragment Stage = "fragment"
	StageClean    Stage = "clean"
	StagePages    Stage = "pages"
	StageAssets   Stage = "assets"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageFragment, StageClean, StagePages, StageAssets}

// Result contains the outcome of a build execution.
type Result struct {
	// BuildID identifies this build on every structured log line.
	BuildID string

	// Status indicates overall build outcome.
	Status Status

	// FailedStage is the stage that stopped the build, if any.
	FailedStage Stage

	// Root is the source directory the build ran over.
	Root string

	// OutputPath is the resolved output root.
	OutputPath string

	// Pages lists processed pages in discovery order.
	Pages []pages.Page

	// Assets counts what the asset copier produced.
	Assets assets.CopyResult

	// StageDurations records how long each completed stage took.
	StageDurations map[Stage]time.Duration

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
