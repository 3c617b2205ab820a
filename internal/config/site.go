// Package config holds the site table: the fixed build layout (fragment name,
// output root, exclusion rules) and the static page-title mapping. The table is
// compiled into the binary and is immutable once loaded.
package config

import (
	"bytes"
	_ "embed"
	stdErrors "errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
)

//go:embed site.yaml
var siteTable []byte

// Defaults applied when the table leaves a field empty.
const (
	DefaultTitle          = "Luke Howard"
	DefaultSharedFragment = "shared_head.html"
	DefaultOutputDir      = "dist"
	DefaultPageExtension  = ".html"
	DefaultBuildScript    = "build.js"
)

var defaultExcludedExtensions = []string{"html", "json", "toml", "md"}

// PageConfig holds per-page settings.
type PageConfig struct {
	Title string `yaml:"title"`
}

// Config is the build layout plus the page-title table.
type Config struct {
	DefaultTitle       string                `yaml:"default_title"`
	SharedFragment     string                `yaml:"shared_fragment"`
	OutputDir          string                `yaml:"output_dir"`
	PageExtension      string                `yaml:"page_extension"`
	BuildScript        string                `yaml:"build_script"`
	ExcludedDirs       []string              `yaml:"excluded_dirs"`
	ExcludedExtensions []string              `yaml:"excluded_extensions"`
	Pages              map[string]PageConfig `yaml:"pages"`
}

// Default returns the site table compiled into the binary.
func Default() (*Config, error) {
	cfg, err := Parse(siteTable)
	if err != nil {
		return nil, errors.SiteTableInvalid(err)
	}
	return cfg, nil
}

// Parse decodes a site table document, applies defaults and normalizes page keys.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !stdErrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode site table: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultTitle == "" {
		c.DefaultTitle = DefaultTitle
	}
	if c.SharedFragment == "" {
		c.SharedFragment = DefaultSharedFragment
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.PageExtension == "" {
		c.PageExtension = DefaultPageExtension
	}
	if c.BuildScript == "" {
		c.BuildScript = DefaultBuildScript
	}
	if c.ExcludedExtensions == nil {
		c.ExcludedExtensions = slices.Clone(defaultExcludedExtensions)
	}
}

func (c *Config) normalize() error {
	if !strings.HasPrefix(c.PageExtension, ".") {
		c.PageExtension = "." + c.PageExtension
	}
	for i, ext := range c.ExcludedExtensions {
		c.ExcludedExtensions[i] = strings.TrimPrefix(ext, ".")
	}

	c.OutputDir = filepath.Clean(c.OutputDir)
	if c.OutputDir == "." || c.OutputDir == ".." || strings.HasPrefix(c.OutputDir, ".."+string(filepath.Separator)) {
		return errors.ValidationFailed("output_dir", "must name a directory below the source root or an absolute path")
	}
	if top := c.outputTopLevel(); top != "" && !slices.Contains(c.ExcludedDirs, top) {
		c.ExcludedDirs = append(c.ExcludedDirs, top)
	}

	pages := make(map[string]PageConfig, len(c.Pages))
	for key, page := range c.Pages {
		nk := normalizePageKey(key)
		if _, dup := pages[nk]; dup {
			return errors.ValidationFailed("pages", fmt.Sprintf("duplicate page entry %q", nk))
		}
		if strings.TrimSpace(page.Title) == "" {
			return errors.ValidationFailed("pages", fmt.Sprintf("page %q has an empty title", nk))
		}
		pages[nk] = page
	}
	c.Pages = pages
	return nil
}

// outputTopLevel returns the output dir's name when it sits directly under the
// source root. A nested output dir leaves its parent copyable; the copier skips
// the output root itself.
func (c *Config) outputTopLevel() string {
	if filepath.IsAbs(c.OutputDir) || strings.Contains(filepath.ToSlash(c.OutputDir), "/") {
		return ""
	}
	return c.OutputDir
}

// normalizePageKey maps a relative page path to its table key: forward slashes,
// no leading "./", NFC-normalized.
func normalizePageKey(rel string) string {
	key := path.Clean(filepath.ToSlash(rel))
	key = strings.TrimPrefix(key, "./")
	return norm.NFC.String(key)
}

// ResolveTitle returns the title configured for a page path relative to the
// source root, or the default title. The bool reports whether the table had an entry.
func (c *Config) ResolveTitle(rel string) (string, bool) {
	if page, ok := c.Pages[normalizePageKey(rel)]; ok {
		return page.Title, true
	}
	return c.DefaultTitle, false
}

// TitleFor is ResolveTitle without the table-hit flag.
func (c *Config) TitleFor(rel string) string {
	title, _ := c.ResolveTitle(rel)
	return title
}

// IsPage reports whether a file name is a page: it carries the page extension
// and is not the shared fragment.
func (c *Config) IsPage(name string) bool {
	return strings.HasSuffix(name, c.PageExtension) && name != c.SharedFragment
}

// IsExcludedDir reports whether a top-level directory is skipped by the asset copier.
func (c *Config) IsExcludedDir(name string) bool {
	return slices.Contains(c.ExcludedDirs, name)
}

// ExcludedFileReason reports whether a top-level file is skipped by the asset
// copier and why.
func (c *Config) ExcludedFileReason(name string) (string, bool) {
	for _, ext := range c.ExcludedExtensions {
		if strings.HasSuffix(name, "."+ext) {
			return "extension ." + ext, true
		}
	}
	switch {
	case strings.HasPrefix(name, "."):
		return "hidden file", true
	case name == c.BuildScript:
		return "build script", true
	case name == c.SharedFragment:
		return "shared fragment", true
	}
	return "", false
}

// OutputPath resolves the output root against the source root.
func (c *Config) OutputPath(root string) string {
	if filepath.IsAbs(c.OutputDir) {
		return c.OutputDir
	}
	return filepath.Join(root, c.OutputDir)
}

// FragmentPath resolves the shared fragment file against the source root.
func (c *Config) FragmentPath(root string) string {
	return filepath.Join(root, c.SharedFragment)
}
