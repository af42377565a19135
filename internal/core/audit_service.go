package core

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mark1russell7/ecosys/internal/gitref"
	"github.com/mark1russell7/ecosys/internal/types"
)

// AuditOptions configures the audit workflow.
type AuditOptions struct {
	Fix bool
}

// fixableFiles is the whitelisted subset of template files audit may create
// with sensible defaults. Everything else is report-only: fabricating a
// tsconfig or package.json would mask real scaffolding problems.
var fixableFiles = map[string]string{
	".gitignore":   "node_modules/\ndist/\n",
	".npmrc":       "engine-strict=true\n",
	"README.md":    "",
	"src/index.ts": "export {};\n",
}

// AuditService checks every manifest-listed package against the project
// template and flags configuration errors in package.json.
type AuditService struct {
	engine *Engine
}

// NewAuditService creates an AuditService over engine.
func NewAuditService(engine *Engine) *AuditService {
	return &AuditService{engine: engine}
}

// Audit verifies template files/dirs, foreign lockfiles, and the build
// allowlist for external git dependencies. With Fix, the whitelisted missing
// files are created.
func (s *AuditService) Audit(_ context.Context, opts AuditOptions) (*types.AuditResult, error) {
	deps := s.engine.Deps()
	start := time.Now()

	manifest, err := deps.Manifest.Load()
	if err != nil {
		return nil, err
	}
	root := deps.Manifest.RootDir(manifest)

	template := manifest.ProjectTemplate
	if len(template.Files) == 0 && len(template.Dirs) == 0 {
		template = types.ProjectTemplate{Files: DefaultTemplate.Files, Dirs: DefaultTemplate.Dirs}
	}

	result := &types.AuditResult{
		WorkflowResult: types.WorkflowResult{RunID: uuid.NewString(), Success: true},
	}

	for _, name := range sortedManifestNames(manifest) {
		entry := manifest.Packages[name]
		dir := filepath.Join(root, entry.Path)
		report := s.auditPackage(name, dir, template, opts.Fix)
		if !report.Valid {
			result.Success = false
		}
		result.Fixable += countFixable(report)
		result.Packages = append(result.Packages, report)
	}

	result.TotalDuration = time.Since(start)
	return result, nil
}

func (s *AuditService) auditPackage(name, dir string, template types.ProjectTemplate, fix bool) types.AuditPackageReport {
	deps := s.engine.Deps()
	report := types.AuditPackageReport{Name: name, Valid: true}

	if !deps.FS.Exists(dir) {
		report.Valid = false
		report.MissingDirs = append(report.MissingDirs, dir)
		return report
	}

	for _, d := range template.Dirs {
		if !deps.FS.Exists(filepath.Join(dir, d)) {
			report.Valid = false
			report.MissingDirs = append(report.MissingDirs, d)
		}
	}
	for _, f := range template.Files {
		path := filepath.Join(dir, f)
		if deps.FS.Exists(path) {
			continue
		}
		if content, fixable := fixableFiles[f]; fixable && fix {
			if err := deps.FS.WriteFile(path, []byte(content)); err == nil {
				report.Fixed++
				continue
			}
		}
		report.Valid = false
		report.MissingFiles = append(report.MissingFiles, f)
	}

	// Foreign lockfiles are a configuration error in a pnpm-managed fleet.
	for _, lock := range ForeignLockfiles {
		if deps.FS.Exists(filepath.Join(dir, lock)) {
			report.Valid = false
			report.ForeignLockfile = lock
			break
		}
	}

	s.auditBuildAllowlist(dir, &report)
	return report
}

// auditBuildAllowlist flags ecosystem-external git dependencies that are
// missing from pnpm's onlyBuiltDependencies allowlist: their install scripts
// silently never run.
func (s *AuditService) auditBuildAllowlist(dir string, report *types.AuditPackageReport) {
	deps := s.engine.Deps()

	var pkg packageJSON
	if err := deps.FS.ReadJSON(filepath.Join(dir, PackageFile), &pkg); err != nil {
		report.Valid = false
		report.MissingFiles = append(report.MissingFiles, PackageFile)
		return
	}

	allowed := make(map[string]bool)
	if pkg.Pnpm != nil {
		for _, dep := range pkg.Pnpm.OnlyBuiltDependencies {
			allowed[dep] = true
		}
	}

	owner := deps.Config.Owner
	check := func(depMap map[string]string) {
		for dep, ver := range depMap {
			if _, isGit := gitref.Parse(ver); !isGit {
				continue
			}
			if gitref.IsInternalRef(ver, owner) {
				continue
			}
			if !allowed[dep] {
				report.Valid = false
				report.UnlistedBuilds = append(report.UnlistedBuilds, dep)
			}
		}
	}
	check(pkg.Dependencies)
	check(pkg.DevDependencies)
}

func countFixable(report types.AuditPackageReport) int {
	n := 0
	for _, f := range report.MissingFiles {
		if _, ok := fixableFiles[f]; ok {
			n++
		}
	}
	return n
}
