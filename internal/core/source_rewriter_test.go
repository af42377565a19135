package core

import (
	"strings"
	"testing"

	"github.com/mark1russell7/ecosys/internal/types"
)

const sampleSource = `import { Client } from "@mark1russell7/client-core";
import helpers from "@mark1russell7/client-core/helpers";
import other from "@mark1russell7/client-core-extras";
import "side-effect-pkg";
export { X } from "@mark1russell7/client-core/sub/deep";
const dyn = await import("@mark1russell7/client-core");
const req = require("@mark1russell7/client-core/util");
const unrelated = await import("lodash");
`

func TestRegexSourceRewriter(t *testing.T) {
	rewriter := &RegexSourceRewriter{}
	updated, changes := rewriter.Rewrite("a.ts", []byte(sampleSource),
		"@mark1russell7/client-core", "@mark1russell7/eco-core")

	text := string(updated)

	// Exact and subpath specifiers rewrite, suffix preserved.
	for _, want := range []string{
		`from "@mark1russell7/eco-core"`,
		`from "@mark1russell7/eco-core/helpers"`,
		`from "@mark1russell7/eco-core/sub/deep"`,
		`import("@mark1russell7/eco-core")`,
		`require("@mark1russell7/eco-core/util")`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rewritten source missing %q:\n%s", want, text)
		}
	}

	// A prefix-sharing package is untouched.
	if !strings.Contains(text, `"@mark1russell7/client-core-extras"`) {
		t.Error("prefix-sharing package was rewritten")
	}
	if !strings.Contains(text, `import("lodash")`) {
		t.Error("unrelated dynamic import was rewritten")
	}

	if len(changes) != 5 {
		t.Fatalf("changes = %d, want 5: %+v", len(changes), changes)
	}

	dynamics := 0
	for _, c := range changes {
		if c.Kind == types.RenameDynamicImport {
			dynamics++
		}
		if c.Line == 0 {
			t.Errorf("change lacks line number: %+v", c)
		}
	}
	if dynamics != 2 {
		t.Errorf("dynamic-import changes = %d, want 2 (import() and require())", dynamics)
	}
}

func TestRegexSourceRewriter_NoMatches(t *testing.T) {
	rewriter := &RegexSourceRewriter{}
	src := []byte(`import x from "left-pad";`)
	updated, changes := rewriter.Rewrite("a.ts", src, "@scope/pkg", "@scope/new")
	if len(changes) != 0 {
		t.Errorf("changes = %+v, want none", changes)
	}
	if string(updated) != string(src) {
		t.Error("content changed without matches")
	}
}
