package core

import (
	"regexp"
	"strings"

	"github.com/mark1russell7/ecosys/internal/types"
)

// specifierRegex captures the quoted module specifier of static imports,
// re-exports, side-effect imports, dynamic import() calls and require()
// calls. The prefix group disambiguates static from dynamic occurrences.
var specifierRegex = regexp.MustCompile(
	`((?:import|export)\s[^'"\n]*?from\s*|import\s*\(\s*|require\s*\(\s*|import\s+)(['"])([^'"\n]+)(['"])`)

// RegexSourceRewriter rewrites import specifiers that equal the renamed
// package or address one of its subpaths. It is a structural line-anchored
// rewriter: specifiers are matched exactly, subpath suffixes preserved, and
// nothing outside a specifier string is ever touched.
type RegexSourceRewriter struct{}

// Rewrite scans content for specifiers equal to oldName or starting with
// oldName + "/" and replaces the package part, keeping the suffix.
func (r *RegexSourceRewriter) Rewrite(file string, content []byte, oldName, newName string) ([]byte, []types.RenameChange) {
	text := string(content)
	matches := specifierRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return content, nil
	}

	var changes []types.RenameChange
	var b strings.Builder
	last := 0
	for _, m := range matches {
		prefix := text[m[2]:m[3]]
		spec := text[m[6]:m[7]]

		newSpec, matched := rewriteSpecifier(spec, oldName, newName)
		if !matched {
			continue
		}

		kind := types.RenameImport
		if strings.Contains(prefix, "(") {
			kind = types.RenameDynamicImport
		}
		changes = append(changes, types.RenameChange{
			Kind: kind,
			File: file,
			Line: 1 + strings.Count(text[:m[0]], "\n"),
			Old:  spec,
			New:  newSpec,
		})

		b.WriteString(text[last:m[6]])
		b.WriteString(newSpec)
		last = m[7]
	}
	if len(changes) == 0 {
		return content, nil
	}
	b.WriteString(text[last:])
	return []byte(b.String()), changes
}

// rewriteSpecifier replaces the package part of a specifier, preserving any
// subpath suffix. Only exact-package or subpath matches rewrite; a package
// whose name merely shares a prefix does not.
func rewriteSpecifier(spec, oldName, newName string) (string, bool) {
	if spec == oldName {
		return newName, true
	}
	if strings.HasPrefix(spec, oldName+"/") {
		return newName + spec[len(oldName):], true
	}
	return "", false
}
