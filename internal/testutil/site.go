// Package testutil builds source trees on disk and asserts on output trees.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	testDirPermissions  = 0o750
	testFilePermissions = 0o600
)

// SharedHead is a fragment shaped like a real site head.
const SharedHead = "<meta charset=\"utf-8\">\n<title>{{TITLE}}</title>\n<link rel=\"stylesheet\" href=\"/style.css\">\n"

// WriteTree creates files under root; keys are slash-separated relative paths.
// A key ending in "/" creates an empty directory.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if rel != "" && rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(full, testDirPermissions); err != nil {
				t.Fatalf("mkdir %s: %v", full, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), testDirPermissions); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, []byte(content), testFilePermissions); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
}

// ReadTree returns every regular file under root keyed by slash-separated
// relative path. A missing root yields an empty map.
func ReadTree(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := map[string]string{}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return tree
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree %s: %v", root, err)
	}
	return tree
}

// SampleSite returns a source tree shaped like the real site: pages in the
// page-holding directories, top-level assets, and files that must never be
// copied.
func SampleSite() map[string]string {
	return map[string]string{
		"shared_head.html":                   SharedHead,
		"index.html":                         "<html><head>{{SHARED_HEAD}}</head><body>home</body></html>",
		"about/index.html":                   "<html><head>{{SHARED_HEAD}}</head><body>about</body></html>",
		"music/solo/index.html":              "<html><head>{{SHARED_HEAD}}</head><body>solo</body></html>",
		"music/solo/cover.jpg":               "JPEGDATA",
		"books/28-transcriptions/index.html": "<html><head>{{SHARED_HEAD}}</head><body>book</body></html>",
		"diary/2024/entry.html":              "<html><head>{{SHARED_HEAD}}</head><body>entry</body></html>",
		"files/score.pdf":                    "%PDF-1.4",
		"files/audio/track.mp3":              "ID3",
		"favicon.ico":                        "ICO",
		"random-image.js":                    "console.log('img')",
		"_headers":                           "/*\n  X-Frame-Options: DENY\n",
		"build.js":                           "// legacy build script",
		"package.json":                       "{}",
		"netlify.toml":                       "[build]",
		"README.md":                          "# site",
		".gitignore":                         "dist\n",
	}
}
