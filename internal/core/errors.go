package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error format:
//
//	Error: <what went wrong>
//	  Context: <relevant details>
//	  Fix: <what the user should do>

// =============================================================================
// Sentinel Errors
// =============================================================================

// Sentinel errors for common error conditions.
// These can be used with errors.Is() for error type checking.
var (
	// ErrManifestMissing indicates the ecosystem manifest does not exist
	ErrManifestMissing = errors.New("ecosystem manifest not found at " + ManifestRelPath)
)

// =============================================================================
// Structured Error Types
// =============================================================================

// ManifestInvalidError is returned when the manifest fails to parse or
// violates its schema.
type ManifestInvalidError struct {
	Path    string
	Reasons []string
	Cause   error
}

func (e *ManifestInvalidError) Error() string {
	var b strings.Builder
	b.WriteString("Error: Invalid ecosystem manifest")
	b.WriteString(fmt.Sprintf("\n  Context: %s", e.Path))
	for _, r := range e.Reasons {
		b.WriteString("\n    - " + r)
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	b.WriteString("\n  Fix: Edit the manifest to match { version, root, packages, projectTemplate }")
	return b.String()
}

func (e *ManifestInvalidError) Unwrap() error {
	return e.Cause
}

// PackageNotScannedError is returned when a package is referenced by name but
// was not produced by the scan (absent from disk or from the manifest).
type PackageNotScannedError struct {
	Name string
}

func (e *PackageNotScannedError) Error() string {
	return fmt.Sprintf("Error: Package '%s' was not scanned\n  Context: The name is not among the packages discovered from the manifest\n  Fix: Check the manifest entry and that the package directory exists on disk", e.Name)
}

// NewPackageNotScannedError creates a PackageNotScannedError.
func NewPackageNotScannedError(name string) *PackageNotScannedError {
	return &PackageNotScannedError{Name: name}
}

// CycleDetectedError is returned when the dependency graph contains a cycle.
// Nodes lists every node with a non-zero residual in-degree at termination.
type CycleDetectedError struct {
	Nodes []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("Error: Dependency cycle detected\n  Context: Involving packages: %s\n  Fix: Break the cycle by removing one of the circular git dependencies", strings.Join(e.Nodes, ", "))
}

// CleanupFailedError is returned when a cleanup removal fails hard (cleanup
// is normally best-effort; this surfaces only where a workflow demands it).
type CleanupFailedError struct {
	Path  string
	Cause error
}

func (e *CleanupFailedError) Error() string {
	return fmt.Sprintf("Error: Failed to clean '%s'\n  Context: %v\n  Fix: Remove the path manually and re-run", e.Path, e.Cause)
}

func (e *CleanupFailedError) Unwrap() error { return e.Cause }

// InstallFailedError is returned when the package manager install phase fails.
type InstallFailedError struct {
	Package string
	Stderr  string
}

func (e *InstallFailedError) Error() string {
	return fmt.Sprintf("Error: Install failed for '%s'\n  Context: %s\n  Fix: Run the install manually in the package directory to inspect the failure", e.Package, firstLine(e.Stderr))
}

// BuildFailedError is returned when the build script fails.
type BuildFailedError struct {
	Package string
	Stderr  string
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("Error: Build failed for '%s'\n  Context: %s\n  Fix: Run the build script manually in the package directory to inspect the failure", e.Package, firstLine(e.Stderr))
}

// GitFailedError is returned when a git phase (add, commit, push, pull, init,
// checkout) fails.
type GitFailedError struct {
	Phase string
	Cause error
}

func (e *GitFailedError) Error() string {
	return fmt.Sprintf("Error: Git %s failed\n  Context: %v\n  Fix: Check repository state and remote access, then re-run", e.Phase, e.Cause)
}

func (e *GitFailedError) Unwrap() error { return e.Cause }

// NewGitFailedError creates a GitFailedError.
func NewGitFailedError(phase string, cause error) *GitFailedError {
	return &GitFailedError{Phase: phase, Cause: cause}
}

// CloneFailedError is returned when cloning a missing package fails.
type CloneFailedError struct {
	URL   string
	Cause error
}

func (e *CloneFailedError) Error() string {
	return fmt.Sprintf("Error: Clone failed for '%s'\n  Context: %v\n  Fix: Check the manifest repo ref and remote access", e.URL, e.Cause)
}

func (e *CloneFailedError) Unwrap() error { return e.Cause }

// TimeoutError is returned when a process spawn exceeds its per-call timeout.
type TimeoutError struct {
	Phase string
	Limit string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Error: Timed out during %s\n  Context: The process exceeded its %s limit and was terminated\n  Fix: Re-run; if the timeout persists, investigate the hung command", e.Phase, e.Limit)
}

// =============================================================================
// Error Type Checking Helpers
// =============================================================================

// IsManifestInvalid returns true if err is a ManifestInvalidError.
func IsManifestInvalid(err error) bool {
	var e *ManifestInvalidError
	return errors.As(err, &e)
}

// IsPackageNotScanned returns true if err is a PackageNotScannedError.
func IsPackageNotScanned(err error) bool {
	var e *PackageNotScannedError
	return errors.As(err, &e)
}

// IsCycleDetected returns true if err is a CycleDetectedError.
func IsCycleDetected(err error) bool {
	var e *CycleDetectedError
	return errors.As(err, &e)
}

// IsCleanupFailed returns true if err is a CleanupFailedError.
func IsCleanupFailed(err error) bool {
	var e *CleanupFailedError
	return errors.As(err, &e)
}

// IsInstallFailed returns true if err is an InstallFailedError.
func IsInstallFailed(err error) bool {
	var e *InstallFailedError
	return errors.As(err, &e)
}

// IsBuildFailed returns true if err is a BuildFailedError.
func IsBuildFailed(err error) bool {
	var e *BuildFailedError
	return errors.As(err, &e)
}

// IsGitFailed returns true if err is a GitFailedError.
func IsGitFailed(err error) bool {
	var e *GitFailedError
	return errors.As(err, &e)
}

// IsCloneFailed returns true if err is a CloneFailedError.
func IsCloneFailed(err error) bool {
	var e *CloneFailedError
	return errors.As(err, &e)
}

// IsTimeout returns true if err is a TimeoutError.
func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// firstLine truncates multi-line process output for error contexts.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	if s == "" {
		return "(no output)"
	}
	return s
}
