package pages

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/templates"
)

const (
	outputDirPerm  = 0o755
	outputFilePerm = 0o644
)

// TitleResolver maps a page path relative to the source root to its title.
// The bool reports whether the title came from the page table.
type TitleResolver interface {
	ResolveTitle(rel string) (string, bool)
}

// Page describes one processed page.
type Page struct {
	Path       string // source path as discovered
	RelPath    string // relative to the source root
	OutputPath string // destination on disk
	Title      string
	FromTable  bool // title came from the page table, not the default
	Injected   bool // page carried the shared-head placeholder
}

// Processor renders pages into the output root.
type Processor struct {
	root      string
	outputDir string // as configured, used for progress lines
	outputAbs string // resolved against root
	fragment  string
	titles    TitleResolver
	out       io.Writer
}

// NewProcessor creates a processor. outputDir is the output root as configured
// (relative to root unless absolute). Progress lines go to out; nil discards them.
func NewProcessor(root, outputDir, fragment string, titles TitleResolver, out io.Writer) *Processor {
	if out == nil {
		out = io.Discard
	}
	outputAbs := outputDir
	if !filepath.IsAbs(outputDir) {
		outputAbs = filepath.Join(root, outputDir)
	}
	return &Processor{
		root:      root,
		outputDir: outputDir,
		outputAbs: outputAbs,
		fragment:  fragment,
		titles:    titles,
		out:       out,
	}
}

// RelPath returns a discovered page path relative to the source root.
func (p *Processor) RelPath(pagePath string) (string, error) {
	rel, err := filepath.Rel(p.root, pagePath)
	if err != nil {
		return "", fmt.Errorf("relative path for %s: %w", pagePath, err)
	}
	return rel, nil
}

// Plan resolves a page's relative path, title and destination without reading
// or writing anything.
func (p *Processor) Plan(pagePath string) (Page, error) {
	rel, err := p.RelPath(pagePath)
	if err != nil {
		return Page{}, err
	}
	title, fromTable := p.titles.ResolveTitle(rel)
	return Page{
		Path:       pagePath,
		RelPath:    rel,
		OutputPath: filepath.Join(p.outputAbs, rel),
		Title:      title,
		FromTable:  fromTable,
	}, nil
}

// Process reads a page, injects the shared fragment and writes the result to
// the mirrored output path, creating missing directories and overwriting any
// existing file.
func (p *Processor) Process(pagePath string) (Page, error) {
	page, err := p.Plan(pagePath)
	if err != nil {
		return Page{}, errors.PageFailed(pagePath, err)
	}

	content, err := os.ReadFile(pagePath)
	if err != nil {
		return page, errors.PageFailed(page.RelPath, err)
	}

	page.Injected = templates.HasSharedHead(string(content))
	rendered := templates.Render(string(content), p.fragment, page.Title)

	if err := os.MkdirAll(filepath.Dir(page.OutputPath), outputDirPerm); err != nil {
		return page, errors.PageFailed(page.RelPath, err)
	}
	if err := os.WriteFile(page.OutputPath, []byte(rendered), outputFilePerm); err != nil {
		return page, errors.PageFailed(page.RelPath, err)
	}

	slog.Debug("Page rendered",
		logfields.Page(page.RelPath),
		logfields.Output(page.OutputPath),
		logfields.Title(page.Title),
		slog.Bool("from_table", page.FromTable),
		slog.Bool("injected", page.Injected))
	_, _ = fmt.Fprintf(p.out, "Processed: %s → %s\n", page.RelPath, filepath.Join(p.outputDir, page.RelPath))
	return page, nil
}
