package core

import "time"

// File and directory names
const (
	// EcosystemDir is the directory under the root holding the manifest.
	EcosystemDir = "ecosystem"
	// ManifestFile is the ecosystem manifest filename
	ManifestFile = "ecosystem.manifest.json"
	// PackageFile is the per-package metadata filename
	PackageFile = "package.json"
)

// ManifestRelPath is the manifest path relative to the ecosystem root.
// Use this instead of manually concatenating EcosystemDir + "/" + filename.
const ManifestRelPath = EcosystemDir + "/" + ManifestFile

// Defaults
const (
	// DefaultOwner is the ecosystem owner recognized by the internal-ref predicate
	DefaultOwner = "mark1russell7"
	// DefaultBranch is the branch assumed when a package has no current branch
	DefaultBranch = "main"
	// DefaultHost is the host used when fabricating a canonical git ref
	DefaultHost = "github"
	// DefaultConcurrency bounds in-flight node processors within one level
	DefaultConcurrency = 4
	// DefaultScope prefixes new package names
	DefaultScope = "@" + DefaultOwner
)

// Per-call timeouts. On expiry the caller gets a TimeoutError with the phase
// identified. Install and build processes are terminated; removals run
// in-process and are not stopped, so an expired removal keeps running in the
// background.
const (
	InstallTimeout    = 5 * time.Minute
	BuildTimeout      = 2 * time.Minute
	RemoveTimeout     = 30 * time.Second
	RemoveFileTimeout = 10 * time.Second
)

// CleanupTargets are the per-package paths removed by cleanup.force,
// best-effort and in order.
var CleanupTargets = []string{
	"node_modules",
	"dist",
	"pnpm-lock.yaml",
	"tsconfig.tsbuildinfo",
}

// ForeignLockfiles are lockfiles whose presence in a package is a
// configuration error flagged by audit (the fleet is pnpm-managed).
var ForeignLockfiles = []string{
	"package-lock.json",
	"yarn.lock",
}

// DefaultTemplate is the project template assumed when the manifest does not
// carry one.
var DefaultTemplate = struct {
	Files []string
	Dirs  []string
}{
	Files: []string{"package.json", "tsconfig.json", "src/index.ts"},
	Dirs:  []string{"src"},
}
