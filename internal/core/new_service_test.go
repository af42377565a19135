package core

import (
	"context"
	"testing"
)

func TestNew_ScaffoldsAndRegisters(t *testing.T) {
	builder := NewTestBuilder(t).WithPackage("core", nil)
	engine := builder.Build()
	fs, git, runner, store := builder.Mocks()

	result, err := NewNewService(engine).Create(context.Background(), NewPackageOptions{
		Name:   "widgets",
		Preset: "lib",
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if result.Name != DefaultScope+"/widgets" || result.RepoPath != "/eco/widgets" {
		t.Errorf("result = %+v", result)
	}

	if !fs.Exists("/eco/widgets/src") {
		t.Error("src directory was not created")
	}
	if _, ok := fs.FileContent("/eco/widgets/src/index.ts"); !ok {
		t.Error("entry point was not created")
	}

	// Scaffolding (init then generate), then remote creation via gh.
	calls := runner.CallLog()
	if len(calls) != 3 || !stringsContains(calls[0], "init") || !stringsContains(calls[1], "generate") {
		t.Errorf("scaffold calls = %v", calls)
	}
	if !stringsContains(calls[2], "gh repo create") {
		t.Errorf("remote creation call = %v", calls)
	}

	// Git workflow ran: init, add, commit.
	for _, op := range []string{"init /eco/widgets", "add /eco/widgets", "commit /eco/widgets"} {
		if !containsCall(git.CallLog(), op) {
			t.Errorf("git %s missing: %v", op, git.CallLog())
		}
	}

	// Manifest registered via read-modify-write.
	if len(store.Saved) != 1 {
		t.Fatalf("manifest saves = %d, want 1", len(store.Saved))
	}
	entry, ok := store.Saved[0].Packages["widgets"]
	if !ok || entry.Repo != "github:"+DefaultOwner+"/widgets#main" || entry.Path != "widgets" {
		t.Errorf("manifest entry = %+v", entry)
	}
}

func TestNew_FailsWhenTargetExists(t *testing.T) {
	builder := NewTestBuilder(t).WithPackage("widgets", nil)
	engine := builder.Build()

	if _, err := NewNewService(engine).Create(context.Background(), NewPackageOptions{Name: "widgets"}); err == nil {
		t.Error("creation over an existing path succeeded")
	}
}

func TestNew_SkipFlags(t *testing.T) {
	builder := NewTestBuilder(t).WithPackage("core", nil)
	engine := builder.Build()
	_, git, _, store := builder.Mocks()

	_, err := NewNewService(engine).Create(context.Background(), NewPackageOptions{
		Name:         "widgets",
		SkipGit:      true,
		SkipManifest: true,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if containsCall(git.CallLog(), "init") {
		t.Errorf("git ran with --skip-git: %v", git.CallLog())
	}
	if len(store.Saved) != 0 {
		t.Error("manifest saved with --skip-manifest")
	}
}

func TestNew_DryRunIsPure(t *testing.T) {
	builder := NewTestBuilder(t).WithPackage("core", nil)
	engine := builder.Build()
	fs, git, runner, store := builder.Mocks()

	result, err := NewNewService(engine).Create(context.Background(), NewPackageOptions{Name: "widgets", DryRun: true})
	if err != nil {
		t.Fatalf("dry new failed: %v", err)
	}
	if len(result.PlannedOperations) == 0 {
		t.Error("dry-run produced no plan")
	}
	if len(fs.MutatingCalls()) != 0 || len(git.CallLog()) != 0 || len(runner.CallLog()) != 0 || len(store.Saved) != 0 {
		t.Error("dry-run side-effected")
	}
}
