// Package templates injects the shared head fragment into pages. Substitution
// is literal and touches only the first occurrence of each placeholder.
package templates

import "strings"

// Placeholder tokens.
const (
	SharedHeadToken = "{{SHARED_HEAD}}"
	TitleToken      = "{{TITLE}}"
)

// RenderFragment returns the fragment with its first title placeholder replaced.
// Any other tokens in the fragment pass through unresolved.
func RenderFragment(fragment, title string) string {
	return strings.Replace(fragment, TitleToken, title, 1)
}

// Render replaces the first shared-head placeholder in page with the fragment
// rendered for title. A page without the placeholder is returned unchanged.
func Render(page, fragment, title string) string {
	if !HasSharedHead(page) {
		return page
	}
	return strings.Replace(page, SharedHeadToken, RenderFragment(fragment, title), 1)
}

// HasSharedHead reports whether page contains the shared-head placeholder.
func HasSharedHead(page string) bool {
	return strings.Contains(page, SharedHeadToken)
}
