package core

import (
	"context"
	"errors"
	"testing"
)

// End-to-end install with one missing package: the absent one is cloned, the
// present ones skipped, and all three build in leveled order.
func TestInstall_ClonesMissingThenBuildsAll(t *testing.T) {
	builder := NewTestBuilder(t).
		WithPackage("core", nil).
		WithPackage("api", map[string]string{"core": InternalDep("core")}).
		WithManifestEntry("tools", "github:mark1russell7/tools#main")

	// The clone materializes the missing package on disk so the scan finds it.
	builder.WithGit(func(g *MockGitClient) {
		g.CloneFunc = func(_, dest, _ string) error {
			builder.fs.AddDir(dest + "/.git")
			builder.fs.AddJSON(dest+"/package.json", map[string]any{"name": "tools"})
			return nil
		}
	})
	engine := builder.Build()
	_, git, runner, _ := builder.Mocks()

	result, err := NewInstallService(engine).Install(context.Background(), InstallOptions{})
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}

	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Cloned) != 1 || result.Cloned[0] != "tools" {
		t.Errorf("cloned = %v, want [tools]", result.Cloned)
	}
	if len(result.Skipped) != 2 {
		t.Errorf("skipped = %v, want [api core]", result.Skipped)
	}

	clones := 0
	for _, c := range git.CallLog() {
		if stringsContains(c, "clone") {
			clones++
		}
	}
	if clones != 1 {
		t.Errorf("git clone called %d times, want 1", clones)
	}

	for _, pkg := range []string{"core", "api", "tools"} {
		if !containsCall(runner.CallLog(), "install /eco/"+pkg) {
			t.Errorf("%s was not installed: %v", pkg, runner.CallLog())
		}
		if r := result.Results[pkg]; r == nil || !r.Success {
			t.Errorf("results[%s] = %+v, want success", pkg, r)
		}
	}
}

// Idempotence: a second install over the populated tree performs zero clones
// and still succeeds.
func TestInstall_Idempotent(t *testing.T) {
	builder := NewTestBuilder(t).
		WithPackage("core", nil).
		WithPackage("api", map[string]string{"core": InternalDep("core")})
	engine := builder.Build()
	_, git, _, _ := builder.Mocks()

	svc := NewInstallService(engine)
	for i := 0; i < 2; i++ {
		result, err := svc.Install(context.Background(), InstallOptions{})
		if err != nil || !result.Success {
			t.Fatalf("install #%d failed: %v %+v", i+1, err, result)
		}
		if len(result.Cloned) != 0 {
			t.Errorf("install #%d cloned %v, want none", i+1, result.Cloned)
		}
	}
	if containsCall(git.CallLog(), "clone") {
		t.Errorf("clone happened on a populated tree: %v", git.CallLog())
	}
}

// Dry-run records planned clones and builds without side effects.
func TestInstall_DryRunIsPure(t *testing.T) {
	builder := NewTestBuilder(t).
		WithPackage("core", nil).
		WithManifestEntry("tools", "github:mark1russell7/tools#main")
	engine := builder.Build()
	fs, git, runner, _ := builder.Mocks()

	result, err := NewInstallService(engine).Install(context.Background(), InstallOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry install failed: %v", err)
	}
	if len(result.PlannedOperations) == 0 {
		t.Error("dry-run produced no planned operations")
	}
	if len(fs.MutatingCalls()) != 0 || len(git.CallLog()) != 0 || len(runner.CallLog()) != 0 {
		t.Errorf("dry-run side-effected: fs=%v git=%v runner=%v",
			fs.MutatingCalls(), git.CallLog(), runner.CallLog())
	}
}

func TestInstall_CloneFailureReported(t *testing.T) {
	builder := NewTestBuilder(t).
		WithPackage("core", nil).
		WithManifestEntry("tools", "github:mark1russell7/tools#main").
		WithGit(func(g *MockGitClient) {
			g.CloneFunc = func(url, _, _ string) error {
				return &CloneFailedError{URL: url, Cause: errors.New("auth")}
			}
		})
	engine := builder.Build()

	result, err := NewInstallService(engine).Install(context.Background(), InstallOptions{})
	if err != nil {
		t.Fatalf("install errored hard: %v", err)
	}
	if result.Success {
		t.Error("install succeeded despite failed clone")
	}
	if len(result.Errors) != 1 || !stringsContains(result.Errors[0], "tools") {
		t.Errorf("errors = %v, want the failed package identified", result.Errors)
	}
}
