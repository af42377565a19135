package core

import (
	"context"

	"github.com/mark1russell7/ecosys/internal/agg"
)

// The workflow library: the shared primitives and the single-package refresh
// pipeline, defined as aggregation data and interpreted by the generic
// engine. Fleet-wide workflows (install, refresh-all, pull) are Go services
// (InstallService, RefreshService, PullService), not registered handlers;
// they run these per node through the leveled executor.

// RefreshCommitMessage is the canonical message template used when a refresh
// commits a package.
const RefreshCommitMessage = "chore: refresh {{input.packageName}}"

// RegisterWorkflowAggregations installs the aggregation-defined workflows
// into reg, plus the thin native handlers their failure paths dispatch to.
// Definitions are data: once registered they are immutable unless replaced.
func RegisterWorkflowAggregations(reg *agg.Registry) error {
	handlers := map[string]agg.Handler{
		"fail.install": failInstall,
		"fail.build":   failBuild,
		"cleanup.rm":   cleanupRm,
	}
	for path, h := range handlers {
		if err := reg.RegisterHandler(path, h, nil); err != nil {
			return err
		}
	}

	aggregations := map[string]any{
		"cleanup.force":        cleanupForceAggregation(),
		"pnpm.installAndBuild": installAndBuildAggregation(),
		"git.commitAndPush":    commitAndPushAggregation(),
		"git.initWorkflow":     initWorkflowAggregation(),
		"refresh.single":       refreshSingleAggregation(),
	}
	for path, def := range aggregations {
		if err := reg.RegisterAggregation(path, def, &agg.RegisterOptions{
			Meta: agg.Metadata{Tags: []string{"workflow"}},
		}); err != nil {
			return err
		}
	}
	return nil
}

// failInstall raises the typed install failure; the workflow library's
// conditionals dispatch here so the taxonomy surfaces as tagged errors, not
// thrown strings.
func failInstall(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	return nil, &InstallFailedError{
		Package: inputString(input, "package"),
		Stderr:  inputString(input, "stderr"),
	}
}

// failBuild raises the typed build failure.
func failBuild(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	return nil, &BuildFailedError{
		Package: inputString(input, "package"),
		Stderr:  inputString(input, "stderr"),
	}
}

// cleanupRm removes one cleanup target, wrapping any failure as
// CleanupFailedError with the path tagged. cleanup.force still swallows the
// error per target (best-effort), but a caller that does not catch sees the
// typed condition.
func cleanupRm(ctx context.Context, call *agg.CallContext, input any) (any, error) {
	out, err := call.Call(ctx, "fs.rm", input)
	if err != nil {
		return nil, &CleanupFailedError{Path: inputString(input, "path"), Cause: err}
	}
	return out, nil
}

// cleanupForceAggregation removes the build artifacts of one package.
// Per-path failures are swallowed so best-effort cleanup proceeds.
func cleanupForceAggregation() any {
	steps := make([]any, 0, len(CleanupTargets))
	for _, target := range CleanupTargets {
		steps = append(steps, agg.Step("client.tryCatch", map[string]any{
			"try": agg.Step("cleanup.rm", map[string]any{
				"path":      "{{input.cwd}}/" + target,
				"recursive": true,
				"force":     true,
			}),
			"catch": map[string]any{"removed": false},
		}))
	}
	return agg.Step("client.chain", map[string]any{"steps": steps})
}

// installAndBuildAggregation installs then builds; each phase raises its
// typed failure (pnpm reports failure through its success boolean, so the
// raise is an explicit dispatch to the fail.* handlers).
func installAndBuildAggregation() any {
	return agg.Step("client.chain", map[string]any{
		"steps": []any{
			agg.NamedStep("i", "pnpm.install", map[string]any{"cwd": agg.Ref("input.cwd")}),
			agg.Step("client.conditional", map[string]any{
				"condition": agg.NotRef("i.success"),
				"then": agg.Step("fail.install", map[string]any{
					"package": agg.Ref("input.packageName"),
					"stderr":  agg.Ref("i.stderr"),
				}),
			}),
			agg.NamedStep("b", "pnpm.run", map[string]any{"script": "build", "cwd": agg.Ref("input.cwd")}),
			agg.Step("client.conditional", map[string]any{
				"condition": agg.NotRef("b.success"),
				"then": agg.Step("fail.build", map[string]any{
					"package": agg.Ref("input.packageName"),
					"stderr":  agg.Ref("b.stderr"),
				}),
			}),
			agg.Step("client.identity", map[string]any{
				"success": true,
				"install": agg.Ref("i"),
				"build":   agg.Ref("b"),
			}),
		},
	})
}

// commitAndPushAggregation stages all, commits and pushes.
func commitAndPushAggregation() any {
	return agg.Step("client.chain", map[string]any{
		"steps": []any{
			agg.Step("git.add", map[string]any{"cwd": agg.Ref("input.cwd"), "all": true}),
			agg.NamedStep("c", "git.commit", map[string]any{
				"cwd":     agg.Ref("input.cwd"),
				"message": agg.Ref("input.message"),
			}),
			agg.Step("git.push", map[string]any{"cwd": agg.Ref("input.cwd")}),
			agg.Step("client.identity", map[string]any{
				"committed": true,
				"hash":      agg.Ref("c.hash"),
			}),
		},
	})
}

// initWorkflowAggregation initializes a repository, makes the first commit
// and optionally creates a remote and pushes. Remote creation shells out to
// the gh CLI; its absence is a user-visible failure.
func initWorkflowAggregation() any {
	return agg.Step("client.chain", map[string]any{
		"steps": []any{
			agg.Step("git.init", map[string]any{"cwd": agg.Ref("input.cwd")}),
			agg.Step("git.add", map[string]any{"cwd": agg.Ref("input.cwd"), "all": true}),
			agg.Step("git.commit", map[string]any{
				"cwd":     agg.Ref("input.cwd"),
				"message": agg.Ref("input.message"),
			}),
			agg.Step("client.conditional", map[string]any{
				"condition": agg.Ref("input.createRemote"),
				"then": agg.Step("client.chain", map[string]any{
					"steps": []any{
						agg.Step("shell.exec", map[string]any{
							"command": "gh repo create {{input.repoOwner}}/{{input.repoName}} --private --source . --push",
							"cwd":     agg.Ref("input.cwd"),
						}),
					},
				}),
			}),
			agg.Step("client.identity", map[string]any{"initialized": true}),
		},
	})
}

// refreshSingleAggregation is the per-package refresh pipeline:
// optional cleanup, install+build, optional commit+push. Dry-run returns the
// planned-operation list without executing anything.
func refreshSingleAggregation() any {
	execute := agg.Step("client.chain", map[string]any{
		"steps": []any{
			agg.Step("client.conditional", map[string]any{
				"condition": agg.Ref("input.force"),
				"then":      agg.Step("cleanup.force", map[string]any{"cwd": agg.Ref("input.cwd")}),
			}),
			agg.Step("pnpm.installAndBuild", map[string]any{
				"cwd":         agg.Ref("input.cwd"),
				"packageName": agg.Ref("input.packageName"),
			}),
			agg.Step("client.conditional", map[string]any{
				"condition": agg.NotRef("input.skipGit"),
				"then": agg.Step("git.commitAndPush", map[string]any{
					"cwd":     agg.Ref("input.cwd"),
					"message": RefreshCommitMessage,
				}),
			}),
			agg.Step("client.identity", map[string]any{
				"success": true,
				"name":    agg.Ref("input.packageName"),
				"path":    agg.Ref("input.cwd"),
				"operations": []any{
					"install",
					"build",
				},
			}),
		},
	})

	planned := agg.Step("client.identity", map[string]any{
		"success": true,
		"dryRun":  true,
		"name":    agg.Ref("input.packageName"),
		"path":    agg.Ref("input.cwd"),
		"plannedOperations": []any{
			"cleanup (if force)",
			"pnpm install",
			"pnpm run build",
			"git commit + push (unless skipGit)",
		},
	})

	return agg.Step("client.conditional", map[string]any{
		"condition": agg.Ref("input.dryRun"),
		"then":      planned,
		"else":      execute,
	})
}
