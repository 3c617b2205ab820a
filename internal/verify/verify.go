// Package verify checks a built output tree against its source tree without
// modifying either.
package verify

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuild/internal/assets"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/pages"
	"git.home.luguber.info/inful/sitebuild/internal/templates"
)

// Kind classifies a verification finding.
type Kind string

const (
	KindMissingPage   Kind = "missing-page"
	KindPageMismatch  Kind = "page-mismatch"
	KindShadowedPage  Kind = "shadowed-page"
	KindTitleMismatch Kind = "title-mismatch"
	KindMissingAsset  Kind = "missing-asset"
	KindAssetMismatch Kind = "asset-mismatch"
	KindLeakedFile    Kind = "leaked-file"
)

// Finding is one discrepancy between source and output.
type Finding struct {
	Kind   Kind
	Path   string // relative to the source root
	Detail string
}

func (f Finding) String() string {
	if f.Detail == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Path)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Kind, f.Path, f.Detail)
}

// Report is the result of one verification run.
type Report struct {
	OutputPath string
	Pages      int // source pages checked
	Assets     int // asset files checked, nested files included
	Findings   []Finding
}

// OK reports whether the output tree matched.
func (r *Report) OK() bool { return len(r.Findings) == 0 }

func (r *Report) add(kind Kind, path, detail string) {
	r.Findings = append(r.Findings, Finding{Kind: kind, Path: filepath.ToSlash(path), Detail: detail})
}

// Verifier compares an output tree with the build that would produce it.
type Verifier struct {
	root string
	cfg  *config.Config
}

// New creates a verifier for the given source root and site table.
func New(root string, cfg *config.Config) *Verifier {
	return &Verifier{root: root, cfg: cfg}
}

// Run checks every page and top-level asset. Findings are returned in the
// report; err is set only when the source tree itself cannot be read.
func (v *Verifier) Run() (*Report, error) {
	report := &Report{OutputPath: v.cfg.OutputPath(v.root)}

	fragment, err := templates.LoadFragment(v.cfg.FragmentPath(v.root))
	if err != nil {
		return nil, err
	}
	if err := v.checkPages(report, fragment); err != nil {
		return nil, err
	}
	if err := v.checkAssets(report); err != nil {
		return nil, err
	}

	slog.Debug("Verification complete",
		logfields.Output(report.OutputPath),
		slog.Int("pages", report.Pages),
		slog.Int("assets", report.Assets),
		slog.Int("findings", len(report.Findings)))
	return report, nil
}

func (v *Verifier) checkPages(report *Report, fragment string) error {
	found, err := pages.FindPages(v.root, v.cfg)
	if err != nil {
		return fmt.Errorf("find pages: %w", err)
	}

	checkTitles := titleInFragment(fragment)
	proc := pages.NewProcessor(v.root, v.cfg.OutputDir, fragment, v.cfg, nil)

	for _, p := range pages.Outside(found, report.OutputPath) {
		page, err := proc.Plan(p)
		if err != nil {
			return err
		}
		report.Pages++

		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}
		got, err := os.ReadFile(page.OutputPath)
		if os.IsNotExist(err) {
			report.add(KindMissingPage, page.RelPath, "")
			continue
		}
		if err != nil {
			return fmt.Errorf("read output page: %w", err)
		}

		want := templates.Render(string(src), fragment, page.Title)
		if string(got) != want {
			if bytes.Equal(got, src) && v.inCopiedDir(page.RelPath) {
				report.add(KindShadowedPage, page.RelPath, "raw copy from asset directory")
				continue
			}
			report.add(KindPageMismatch, page.RelPath, "")
		}

		if checkTitles && templates.HasSharedHead(string(src)) {
			title, ok, err := ExtractTitle(bytes.NewReader(got))
			switch {
			case err != nil:
				report.add(KindTitleMismatch, page.RelPath, "unparseable: "+err.Error())
			case !ok:
				report.add(KindTitleMismatch, page.RelPath, "no <title> element")
			case title != expectedTitle(fragment, page.Title):
				report.add(KindTitleMismatch, page.RelPath, fmt.Sprintf("got %q, want %q", title, expectedTitle(fragment, page.Title)))
			}
		}
	}
	return nil
}

func (v *Verifier) checkAssets(report *Report) error {
	decisions, err := assets.Classify(v.root, report.OutputPath, v.cfg)
	if err != nil {
		return fmt.Errorf("classify assets: %w", err)
	}

	for _, d := range decisions {
		src := filepath.Join(v.root, d.Name)
		dst := filepath.Join(report.OutputPath, d.Name)

		switch d.Action {
		case assets.ActionCopyFile:
			report.Assets++
			if err := compareFile(report, src, dst, d.Name); err != nil {
				return err
			}
		case assets.ActionCopyDir:
			if err := v.compareDir(report, src, dst, d.Name, report.OutputPath); err != nil {
				return err
			}
		case assets.ActionSkip:
			if d.Reason == assets.ReasonOutputRoot || v.cfg.IsExcludedDir(d.Name) || v.cfg.IsPage(d.Name) {
				continue
			}
			if _, err := os.Lstat(dst); err == nil {
				report.add(KindLeakedFile, d.Name, d.Reason)
			}
		}
	}
	return nil
}

// compareDir compares a copied directory tree, leaving out the output root.
func (v *Verifier) compareDir(report *Report, src, dst, rel, output string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	for _, entry := range entries {
		s := filepath.Join(src, entry.Name())
		d := filepath.Join(dst, entry.Name())
		r := filepath.Join(rel, entry.Name())

		info, err := os.Stat(s)
		if err != nil {
			return fmt.Errorf("stat entry: %w", err)
		}
		if info.IsDir() {
			if filepath.Clean(s) == filepath.Clean(output) {
				continue
			}
			if err := v.compareDir(report, s, d, r, output); err != nil {
				return err
			}
			continue
		}
		report.Assets++
		if err := compareFile(report, s, d, r); err != nil {
			return err
		}
	}
	return nil
}

func compareFile(report *Report, src, dst, rel string) error {
	want, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read asset: %w", err)
	}
	got, err := os.ReadFile(dst)
	if os.IsNotExist(err) {
		report.add(KindMissingAsset, rel, "")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read output asset: %w", err)
	}
	if !bytes.Equal(want, got) {
		report.add(KindAssetMismatch, rel, fmt.Sprintf("%d bytes, want %d", len(got), len(want)))
	}
	return nil
}

// inCopiedDir reports whether a page sits inside a top-level directory the
// asset copier copies verbatim.
func (v *Verifier) inCopiedDir(rel string) bool {
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	return len(parts) == 2 && !v.cfg.IsExcludedDir(parts[0])
}

// titleInFragment reports whether the fragment places the title token inside
// its <title> element.
func titleInFragment(fragment string) bool {
	title, ok, err := ExtractTitle(strings.NewReader(fragment))
	return err == nil && ok && strings.Contains(title, templates.TitleToken)
}

func expectedTitle(fragment, title string) string {
	got, _, _ := ExtractTitle(strings.NewReader(templates.RenderFragment(fragment, title)))
	return got
}
