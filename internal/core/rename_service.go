package core

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mark1russell7/ecosys/internal/gitref"
	"github.com/mark1russell7/ecosys/internal/types"
)

// RenameOptions configures the rename workflow.
type RenameOptions struct {
	OldName string // full package name, possibly scoped (@owner/name)
	NewName string
	DryRun  bool
}

// SourceRewriter rewrites import specifiers in one source file. The core
// treats source-text refactoring as an external collaborator; the default
// implementation below does anchored line-level specifier rewrites.
type SourceRewriter interface {
	// Rewrite returns the updated content and the changes found. Content is
	// returned unchanged when no specifier matches.
	Rewrite(file string, content []byte, oldName, newName string) ([]byte, []types.RenameChange)
}

// depSections are the package.json dependency maps rewritten by pass two.
var depSections = []string{"dependencies", "devDependencies", "peerDependencies", "optionalDependencies"}

// sourceIgnore are path segments never descended into when globbing sources.
var sourceIgnore = []string{"node_modules", "dist", ".git"}

// RenameService renames a package across the fleet in three passes: package
// names, dependency specifiers (including the owner/repo pair embedded in
// git version strings), and source import specifiers. Each file write is
// atomic; dry-run collects every planned change without writing.
type RenameService struct {
	engine   *Engine
	rewriter SourceRewriter
}

// NewRenameService creates a RenameService with the default source rewriter.
func NewRenameService(engine *Engine) *RenameService {
	return &RenameService{engine: engine, rewriter: &RegexSourceRewriter{}}
}

// NewRenameServiceWithRewriter creates a RenameService with a custom source
// rewriter.
func NewRenameServiceWithRewriter(engine *Engine, rewriter SourceRewriter) *RenameService {
	return &RenameService{engine: engine, rewriter: rewriter}
}

// Rename applies all three passes plus the manifest rewrite. It returns
// aggregate counts and per-step errors; an individual file is either fully
// rewritten or untouched.
func (s *RenameService) Rename(_ context.Context, opts RenameOptions) (*types.RenameResult, error) {
	deps := s.engine.Deps()
	start := time.Now()

	if opts.OldName == "" || opts.NewName == "" || opts.OldName == opts.NewName {
		return nil, fmt.Errorf("rename: old and new names must be distinct and non-empty")
	}

	manifest, err := deps.Manifest.Load()
	if err != nil {
		return nil, err
	}
	root := deps.Manifest.RootDir(manifest)

	result := &types.RenameResult{
		WorkflowResult: types.WorkflowResult{RunID: uuid.NewString(), Success: true},
	}

	// Manifest entry: key and embedded repo name.
	manifestChanged := s.renameManifestEntry(&manifest, opts, result)

	// Passes one and two: every package.json under the root.
	manifests, err := deps.FS.Glob("**/package.json", root, sourceIgnore)
	if err != nil {
		return nil, err
	}
	sort.Strings(manifests)
	for _, rel := range manifests {
		path := filepath.Join(root, rel)
		if err := s.renamePackageJSON(path, opts, result); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, path+": "+err.Error())
		}
	}

	// Pass three: source imports under the root.
	if err := s.renameSources(root, opts, result); err != nil {
		result.Success = false
		result.Errors = append(result.Errors, root+": "+err.Error())
	}

	if !opts.DryRun && manifestChanged {
		if err := deps.Manifest.Save(manifest); err != nil {
			return nil, err
		}
	}

	if opts.DryRun {
		result.PlannedOperations = plannedFromChanges(result.Changes)
	}
	result.TotalDuration = time.Since(start)
	return result, nil
}

// renameManifestEntry moves the manifest key and rewrites the repo ref.
func (s *RenameService) renameManifestEntry(manifest *types.Manifest, opts RenameOptions, result *types.RenameResult) bool {
	oldBare, newBare := bareName(opts.OldName), bareName(opts.NewName)
	entry, ok := manifest.Packages[oldBare]
	if !ok {
		return false
	}

	// The directory itself is not moved, so the path stays; only the key and
	// the embedded repo name change.
	newEntry := entry
	if ref, parsed := gitref.Parse(entry.Repo); parsed && ref.Repo == oldBare {
		ref.Repo = newBare
		newEntry.Repo = gitref.Format(ref)
	}

	result.Changes = append(result.Changes, types.RenameChange{
		Kind: types.RenamePackageName,
		File: s.engine.Deps().Manifest.Path(),
		Old:  oldBare,
		New:  newBare,
	})

	if !opts.DryRun {
		delete(manifest.Packages, oldBare)
		manifest.Packages[newBare] = newEntry
	}
	return true
}

// renamePackageJSON applies passes one and two to one package.json,
// preserving unknown fields via a generic decode.
func (s *RenameService) renamePackageJSON(path string, opts RenameOptions, result *types.RenameResult) error {
	deps := s.engine.Deps()

	var doc map[string]any
	if err := deps.FS.ReadJSON(path, &doc); err != nil {
		return err
	}

	changed := false

	if name, _ := doc["name"].(string); name == opts.OldName {
		result.Changes = append(result.Changes, types.RenameChange{
			Kind: types.RenamePackageName, File: path, Old: opts.OldName, New: opts.NewName,
		})
		result.PackagesEdits++
		doc["name"] = opts.NewName
		changed = true
	}

	oldBare, newBare := bareName(opts.OldName), bareName(opts.NewName)
	for _, section := range depSections {
		depMap, ok := doc[section].(map[string]any)
		if !ok {
			continue
		}
		ver, has := depMap[opts.OldName]
		if !has {
			continue
		}
		verStr, _ := ver.(string)
		newVer := verStr
		// Rewrite the owner/repo pair when the specifier embeds it.
		if ref, parsed := gitref.Parse(verStr); parsed && ref.Repo == oldBare {
			ref.Repo = newBare
			newVer = gitref.Format(ref)
		}
		result.Changes = append(result.Changes, types.RenameChange{
			Kind: types.RenameDependency, File: path,
			Old: opts.OldName + "@" + verStr, New: opts.NewName + "@" + newVer,
		})
		result.DepEdits++
		delete(depMap, opts.OldName)
		depMap[opts.NewName] = newVer
		changed = true
	}

	if !changed || opts.DryRun {
		return nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return deps.FS.WriteFile(path, append(data, '\n'))
}

// renameSources applies pass three over **/*.{ts,tsx} below dir.
func (s *RenameService) renameSources(dir string, opts RenameOptions, result *types.RenameResult) error {
	deps := s.engine.Deps()

	files, err := deps.FS.Glob("**/*.{ts,tsx}", dir, sourceIgnore)
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, rel := range files {
		path := filepath.Join(dir, rel)
		content, err := deps.FS.ReadFile(path)
		if err != nil {
			return err
		}
		updated, changes := s.rewriter.Rewrite(path, content, opts.OldName, opts.NewName)
		if len(changes) == 0 {
			continue
		}
		result.Changes = append(result.Changes, changes...)
		result.ImportEdits += len(changes)

		if opts.DryRun {
			s.previewDiff(path, string(content), string(updated))
			continue
		}
		if err := deps.FS.WriteFile(path, updated); err != nil {
			return err
		}
	}
	return nil
}

// previewDiff shows a colored per-file diff of a planned source rewrite.
func (s *RenameService) previewDiff(path, before, after string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	dmp.DiffCleanupSemantic(diffs)
	s.engine.Deps().UI.ShowSuccess(path + "\n" + dmp.DiffPrettyText(diffs))
}

// bareName strips a scope prefix: @owner/name -> name.
func bareName(name string) string {
	if strings.HasPrefix(name, "@") {
		if _, bare, ok := strings.Cut(name, "/"); ok {
			return bare
		}
	}
	return name
}

func plannedFromChanges(changes []types.RenameChange) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, string(c.Kind)+" "+c.File+": "+c.Old+" -> "+c.New)
	}
	return out
}
