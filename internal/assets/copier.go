// Package assets copies everything outside the page tree into the output root.
//
// Exclusion rules apply only to the entries directly under the source root. A
// directory that passes them is copied verbatim, every nested file included.
package assets

import (
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

const outputDirPerm = 0o755

// Policy decides which top-level entries are excluded from the copy.
type Policy interface {
	IsExcludedDir(name string) bool
	ExcludedFileReason(name string) (string, bool)
}

// Action is what the copier does with a top-level entry.
type Action string

const (
	ActionCopyDir  Action = "copy-dir"
	ActionCopyFile Action = "copy-file"
	ActionSkip     Action = "skip"
)

// ReasonOutputRoot marks the entry that is the output root itself.
const ReasonOutputRoot = "output directory"

// Decision is the copier's verdict for one top-level entry.
type Decision struct {
	Name   string
	Action Action
	Reason string // set when Action is ActionSkip
}

// CopyResult counts what a copy run produced.
type CopyResult struct {
	Files int   // top-level files copied
	Dirs  int   // top-level directories copied
	Tree  int   // files copied inside those directories
	Bytes int64 // total bytes written
}

// Classify decides, for every entry directly under root, whether it is copied
// and how. The entry that is the output root is always skipped. It never
// touches the output tree.
func Classify(root, output string, policy Policy) ([]Decision, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	decisions := make([]Decision, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("stat entry: %w", err)
		}

		switch {
		case info.IsDir() && samePath(filepath.Join(root, name), output):
			decisions = append(decisions, Decision{Name: name, Action: ActionSkip, Reason: ReasonOutputRoot})
		case info.IsDir():
			if policy.IsExcludedDir(name) {
				decisions = append(decisions, Decision{Name: name, Action: ActionSkip, Reason: "excluded directory"})
			} else {
				decisions = append(decisions, Decision{Name: name, Action: ActionCopyDir})
			}
		case info.Mode().IsRegular():
			if reason, excluded := policy.ExcludedFileReason(name); excluded {
				decisions = append(decisions, Decision{Name: name, Action: ActionSkip, Reason: reason})
			} else {
				decisions = append(decisions, Decision{Name: name, Action: ActionCopyFile})
			}
		default:
			decisions = append(decisions, Decision{Name: name, Action: ActionSkip, Reason: "not a regular file or directory"})
		}
	}
	return decisions, nil
}

// Copier copies the asset entries of a source root into an output root.
type Copier struct {
	policy    Policy
	outputDir string // as configured, used for progress lines
	out       io.Writer
}

// NewCopier creates a copier. Progress lines go to out; nil discards them.
func NewCopier(policy Policy, outputDir string, out io.Writer) *Copier {
	if out == nil {
		out = io.Discard
	}
	return &Copier{policy: policy, outputDir: outputDir, out: out}
}

// CopyAssets copies every non-excluded entry directly under root into dest.
// dest is created when absent and is never copied into itself, wherever it
// sits below root. Any failure aborts the copy.
func (c *Copier) CopyAssets(root, dest string) (CopyResult, error) {
	var res CopyResult
	_, _ = fmt.Fprintf(c.out, "Copying static files to %s...\n", c.outputDir)

	decisions, err := Classify(root, dest, c.policy)
	if err != nil {
		return res, errors.AssetCopyFailed(err)
	}
	if err := os.MkdirAll(dest, outputDirPerm); err != nil {
		return res, errors.AssetCopyFailed(err)
	}

	for _, d := range decisions {
		src := filepath.Join(root, d.Name)
		dst := filepath.Join(dest, d.Name)

		switch d.Action {
		case ActionCopyDir:
			var stats TreeStats
			if err := copyDirectory(src, dst, dest, &stats); err != nil {
				return res, errors.AssetCopyFailed(err).WithContext("asset", d.Name)
			}
			res.Dirs++
			res.Tree += stats.Files
			res.Bytes += stats.Bytes
			slog.Debug("Copied directory", logfields.Asset(d.Name), logfields.Count(stats.Files))
		case ActionCopyFile:
			n, err := copyFile(src, dst)
			if err != nil {
				return res, errors.AssetCopyFailed(err).WithContext("asset", d.Name)
			}
			res.Files++
			res.Bytes += n
			_, _ = fmt.Fprintf(c.out, "Copied: %s\n", d.Name)
		default:
			slog.Debug("Skipped asset", logfields.Asset(d.Name), logfields.Reason(d.Reason))
		}
	}
	return res, nil
}

// TreeStats counts a recursive directory copy.
type TreeStats struct {
	Files int
	Bytes int64
}

// ErrDestInsideSource is returned by CopyDirectory when dest lies inside src.
var ErrDestInsideSource = stdErrors.New("destination is inside the source directory")

// CopyDirectory recursively copies src into dest, creating dest if absent.
// Nothing inside src is filtered; symlinks are followed. A dest inside src is
// refused.
func CopyDirectory(src, dest string) (TreeStats, error) {
	var stats TreeStats
	if within(src, dest) {
		return stats, fmt.Errorf("copy %s to %s: %w", src, dest, ErrDestInsideSource)
	}
	err := copyDirectory(src, dest, "", &stats)
	return stats, err
}

// copyDirectory copies src into dest, leaving out the directory skip.
func copyDirectory(src, dest, skip string, stats *TreeStats) error {
	if err := os.MkdirAll(dest, outputDirPerm); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())

		info, err := os.Stat(srcPath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skip != "" && samePath(srcPath, skip) {
				continue
			}
			if err := copyDirectory(srcPath, destPath, skip, stats); err != nil {
				return err
			}
			continue
		}

		n, err := copyFile(srcPath, destPath)
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
	}
	return nil
}

// copyFile copies a single file byte-for-byte, overwriting dst and keeping the
// source permission bits.
func copyFile(src, dst string) (int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return 0, err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dstFile, srcFile)
	if err != nil {
		_ = dstFile.Close()
		return n, err
	}
	if err := dstFile.Close(); err != nil {
		return n, err
	}

	// OpenFile leaves the mode of an existing file alone.
	return n, os.Chmod(dst, srcInfo.Mode().Perm())
}

// samePath reports whether a and b name the same location after cleaning.
func samePath(a, b string) bool {
	return absClean(a) == absClean(b)
}

// within reports whether p lies at or below dir.
func within(dir, p string) bool {
	d, q := absClean(dir), absClean(p)
	return q == d || strings.HasPrefix(q, d+string(filepath.Separator))
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
