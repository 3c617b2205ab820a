package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSiteError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SiteError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "site table invalid"),
			expected: "config (fatal): site table invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryFileSystem, SeverityFatal, "page processing failed"),
			expected: "filesystem (fatal): page processing failed: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestSiteError_WithContext(t *testing.T) {
	err := New(CategoryBuild, SeverityWarning, "copy failed").
		WithContext("page", "about/index.html").
		WithContext("stage", "pages")

	require.NotNil(t, err.Context)
	require.Equal(t, "about/index.html", err.Context["page"])
	require.Equal(t, "pages", err.Context["stage"])
}

func TestSiteError_UnwrapKeepsPathError(t *testing.T) {
	cause := &fs.PathError{Op: "open", Path: "shared_head.html", Err: fs.ErrNotExist}
	err := FragmentUnreadable("shared_head.html", cause)

	require.True(t, stdErrors.Is(err, fs.ErrNotExist))

	var pathErr *fs.PathError
	require.True(t, stdErrors.As(err, &pathErr))
	require.Equal(t, "shared_head.html", pathErr.Path)
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	fsErr := New(CategoryFileSystem, SeverityFatal, "fs error")
	wrapped := fmt.Errorf("build: %w", fsErr)
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match filesystem category", configErr, CategoryFileSystem, false},
		{"wrapped error matches its category", wrapped, CategoryFileSystem, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, IsCategory(test.err, test.category))
		})
	}
}

func TestGetCategory_DefaultsToInternal(t *testing.T) {
	require.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
	require.Equal(t, CategoryValidation, GetCategory(VerificationFailed(3)))
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	require.Equal(t, 0, a.ExitCodeFor(nil))
	require.Equal(t, 1, a.ExitCodeFor(fmt.Errorf("boom")))
	require.Equal(t, 7, a.ExitCodeFor(FragmentUnreadable("shared_head.html", fs.ErrNotExist)))
	require.Equal(t, 11, a.ExitCodeFor(PageFailed("index.html", fs.ErrPermission)))
	require.Equal(t, 11, a.ExitCodeFor(fmt.Errorf("run: %w", AssetCopyFailed(fs.ErrPermission))))
	require.Equal(t, 2, a.ExitCodeFor(VerificationFailed(1)))
	require.Equal(t, 12, a.ExitCodeFor(BuildCanceled("pages", fmt.Errorf("context canceled"))))
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	msg := a.FormatError(FragmentUnreadable("shared_head.html", fs.ErrNotExist))
	require.Equal(t, "Error: shared fragment could not be read: shared_head.html: file does not exist", msg)

	msg = a.FormatError(AssetCopyFailed(fs.ErrPermission))
	require.Equal(t, "Error: filesystem: asset copy failed: permission denied", msg)

	msg = a.FormatError(ValidationFailed("output_dir", "must not contain the source root"))
	require.Equal(t, "Error: validation failed: output_dir: must not contain the source root", msg)

	msg = a.FormatError(fmt.Errorf("load: %w", ValidationFailed("root", "not a directory")))
	require.Equal(t, "Error: validation failed: root: not a directory", msg)

	require.Equal(t, "Error: boom", a.FormatError(fmt.Errorf("boom")))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logBuf, errBuf bytes.Buffer
	a := NewCLIErrorAdapter(true, slog.New(slog.NewTextHandler(&logBuf, nil)))
	a.stderr = &errBuf
	code := -1
	a.exit = func(c int) { code = c }

	a.HandleError(FragmentUnreadable("shared_head.html", fs.ErrNotExist))

	require.Equal(t, 7, code)
	require.Contains(t, errBuf.String(), "shared fragment could not be read")
	require.Contains(t, logBuf.String(), "category=config")

	code = -1
	a.HandleError(nil)
	require.Equal(t, -1, code)
}
