package errors

// Convenience functions for common error patterns

// Startup errors

func FragmentUnreadable(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "shared fragment could not be read").
		WithContext("path", path)
}

func SiteTableInvalid(cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "site table is invalid")
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func OutputCleanFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output directory could not be removed").
		WithContext("path", path)
}

func DiscoveryFailed(cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "page discovery failed")
}

func PageFailed(page string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "page processing failed").
		WithContext("page", page)
}

func AssetCopyFailed(cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "asset copy failed")
}

func BuildCanceled(stage string, cause error) *SiteError {
	return Wrap(cause, CategoryRuntime, SeverityError, "build canceled").
		WithContext("stage", stage)
}

// Verification errors

func VerificationFailed(findings int) *SiteError {
	return New(CategoryValidation, SeverityError, "output tree does not match source tree").
		WithContext("findings", findings)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
