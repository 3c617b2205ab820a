package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/errors"
	"git.home.luguber.info/inful/sitebuild/internal/testutil"
)

func defaultPolicy(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return cfg
}

func TestClassify_SampleSite(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, testutil.SampleSite())
	testutil.WriteTree(t, root, map[string]string{"dist/stale.txt": "old", "contact/index.html": "c"})

	decisions, err := Classify(root, filepath.Join(root, "dist"), defaultPolicy(t))
	require.NoError(t, err)

	got := map[string]Decision{}
	for _, d := range decisions {
		got[d.Name] = d
	}

	require.Equal(t, ActionCopyDir, got["files"].Action)
	require.Equal(t, ActionCopyFile, got["favicon.ico"].Action)
	require.Equal(t, ActionCopyFile, got["random-image.js"].Action)
	require.Equal(t, ActionCopyFile, got["_headers"].Action)

	require.Equal(t, ActionSkip, got["dist"].Action)
	require.Equal(t, ReasonOutputRoot, got["dist"].Reason)
	for _, dir := range []string{"about", "books", "diary", "music", "contact"} {
		require.Equal(t, ActionSkip, got[dir].Action, dir)
		require.Equal(t, "excluded directory", got[dir].Reason, dir)
	}

	require.Equal(t, "extension .html", got["index.html"].Reason)
	require.Equal(t, "extension .html", got["shared_head.html"].Reason)
	require.Equal(t, "extension .json", got["package.json"].Reason)
	require.Equal(t, "extension .toml", got["netlify.toml"].Reason)
	require.Equal(t, "extension .md", got["README.md"].Reason)
	require.Equal(t, "hidden file", got[".gitignore"].Reason)
	require.Equal(t, "build script", got["build.js"].Reason)
}

func TestClassify_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := Classify(missing, filepath.Join(missing, "dist"), defaultPolicy(t))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCopyAssets_CopiesOnlyAllowedEntries(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, testutil.SampleSite())
	dest := filepath.Join(root, "dist")

	var out bytes.Buffer
	res, err := NewCopier(defaultPolicy(t), "dist", &out).CopyAssets(root, dest)
	require.NoError(t, err)

	require.Equal(t, map[string]string{
		"favicon.ico":           "ICO",
		"random-image.js":       "console.log('img')",
		"_headers":              "/*\n  X-Frame-Options: DENY\n",
		"files/score.pdf":       "%PDF-1.4",
		"files/audio/track.mp3": "ID3",
	}, testutil.ReadTree(t, dest))

	require.Equal(t, 3, res.Files)
	require.Equal(t, 1, res.Dirs)
	require.Equal(t, 2, res.Tree)
	require.Equal(t, int64(len("ICO")+len("console.log('img')")+len("/*\n  X-Frame-Options: DENY\n")+len("%PDF-1.4")+len("ID3")), res.Bytes)

	text := out.String()
	require.Contains(t, text, "Copying static files to dist...\n")
	require.Contains(t, text, "Copied: favicon.ico\n")
	require.Contains(t, text, "Copied: _headers\n")
	require.NotContains(t, text, "Copied: files")
	require.NotContains(t, text, "build.js")
}

func TestCopyAssets_CreatesMissingOutputRoot(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"robots.txt": "User-agent: *"})
	dest := filepath.Join(t.TempDir(), "nested", "out")

	_, err := NewCopier(defaultPolicy(t), dest, nil).CopyAssets(root, dest)
	require.NoError(t, err)
	testutil.NewFileAssertions(t, dest).AssertFileEquals("robots.txt", "User-agent: *")
}

func TestCopyAssets_NestedFilesAreNotFiltered(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"files/.hidden":        "h",
		"files/notes.md":       "n",
		"files/page.html":      "<p>raw</p>",
		"files/build.js":       "b",
		"files/deep/data.json": "{}",
	})
	dest := filepath.Join(root, "dist")

	_, err := NewCopier(defaultPolicy(t), "dist", nil).CopyAssets(root, dest)
	require.NoError(t, err)

	require.Equal(t, map[string]string{
		"files/.hidden":        "h",
		"files/notes.md":       "n",
		"files/page.html":      "<p>raw</p>",
		"files/build.js":       "b",
		"files/deep/data.json": "{}",
	}, testutil.ReadTree(t, dest))
}

func TestClassify_SkipsAbsoluteOutputRoot(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"public/stale.txt": "old", "files/logo.png": "PNG"})

	decisions, err := Classify(root, filepath.Join(root, "public"), defaultPolicy(t))
	require.NoError(t, err)
	require.ElementsMatch(t, []Decision{
		{Name: "files", Action: ActionCopyDir},
		{Name: "public", Action: ActionSkip, Reason: ReasonOutputRoot},
	}, decisions)
}

func TestCopyAssets_OutputRootNotInExcludedDirs(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"favicon.ico": "ICO", "files/logo.png": "PNG"})
	dest := filepath.Join(root, "public")

	_, err := NewCopier(defaultPolicy(t), dest, nil).CopyAssets(root, dest)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"favicon.ico":    "ICO",
		"files/logo.png": "PNG",
	}, testutil.ReadTree(t, dest))
}

func TestCopyAssets_OutputRootInsideAssetDirectory(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"favicon.ico":    "ICO",
		"files/logo.png": "PNG",
	})
	dest := filepath.Join(root, "files", "out")

	res, err := NewCopier(defaultPolicy(t), "files/out", nil).CopyAssets(root, dest)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"favicon.ico":    "ICO",
		"files/logo.png": "PNG",
	}, testutil.ReadTree(t, dest))
	require.Equal(t, 1, res.Tree)
}

func TestCopyAssets_OverwritesExistingFiles(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"style.css": "new"})
	dest := filepath.Join(root, "dist")
	testutil.WriteTree(t, dest, map[string]string{"style.css": "old and longer"})

	_, err := NewCopier(defaultPolicy(t), "dist", nil).CopyAssets(root, dest)
	require.NoError(t, err)
	testutil.NewFileAssertions(t, dest).AssertFileEquals("style.css", "new")
}

func TestCopyAssets_FailureIsFilesystemError(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"style.css": "body{}"})

	// The output root is a regular file, so it cannot be created as a directory.
	dest := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(dest, []byte("x"), 0o600))

	_, err := NewCopier(defaultPolicy(t), "blocked", nil).CopyAssets(root, dest)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryFileSystem))
}

func TestCopyDirectory_PreservesMode(t *testing.T) {
	src := t.TempDir()
	script := filepath.Join(src, "bin", "run.sh")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))

	dest := filepath.Join(t.TempDir(), "copy")
	stats, err := CopyDirectory(src, dest)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Files)
	require.Equal(t, int64(len("#!/bin/sh\n")), stats.Bytes)

	info, err := os.Stat(filepath.Join(dest, "bin", "run.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopyDirectory_FollowsSymlinks(t *testing.T) {
	src := t.TempDir()
	target := filepath.Join(t.TempDir(), "shared")
	testutil.WriteTree(t, target, map[string]string{"logo.svg": "<svg/>"})
	require.NoError(t, os.Symlink(target, filepath.Join(src, "linked")))

	dest := filepath.Join(t.TempDir(), "copy")
	_, err := CopyDirectory(src, dest)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"linked/logo.svg": "<svg/>"}, testutil.ReadTree(t, dest))
}

func TestCopyDirectory_RefusesDestInsideSource(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"logo.png": "PNG"})
	dest := filepath.Join(src, "copy")

	_, err := CopyDirectory(src, dest)
	require.ErrorIs(t, err, ErrDestInsideSource)
	require.NoDirExists(t, dest)
}
