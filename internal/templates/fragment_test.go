package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
)

func TestLoadFragment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared_head.html")
	require.NoError(t, os.WriteFile(path, []byte("<title>{{TITLE}}</title>\n"), 0o600))

	got, err := LoadFragment(path)
	require.NoError(t, err)
	require.Equal(t, "<title>{{TITLE}}</title>\n", got)
}

func TestLoadFragment_MissingIsStartupFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared_head.html")

	_, err := LoadFragment(path)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
	require.ErrorIs(t, err, os.ErrNotExist)
}
