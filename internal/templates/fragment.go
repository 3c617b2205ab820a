package templates

import (
	"os"

	"git.home.luguber.info/inful/sitebuild/internal/errors"
)

// LoadFragment reads the shared fragment. Failure is startup-fatal: callers
// must not touch the output tree when it returns an error.
func LoadFragment(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.FragmentUnreadable(path, err)
	}
	return string(data), nil
}
