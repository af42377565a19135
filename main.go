// Package main implements the ecosys CLI for orchestrating a multi-repo
// ecosystem of git-linked packages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/mark1russell7/ecosys/cmd"
	"github.com/mark1russell7/ecosys/internal/core"
	"github.com/mark1russell7/ecosys/internal/tui"
	"github.com/mark1russell7/ecosys/internal/version"
)

// parseCommonFlags extracts common non-interactive flags from args
// Returns: flags, remainingArgs
func parseCommonFlags(args []string) (core.NonInteractiveFlags, []string) {
	flags := core.NonInteractiveFlags{}
	var remaining []string

	for _, arg := range args {
		switch arg {
		case "--yes", "-y":
			flags.Yes = true
		case "--quiet", "-q":
			flags.Mode = core.OutputQuiet
		case "--json":
			flags.Mode = core.OutputJSON
		default:
			remaining = append(remaining, arg)
		}
	}

	return flags, remaining
}

// hasFlag reports whether flag appears in args and returns args without it.
func hasFlag(args []string, flag string) (bool, []string) {
	var remaining []string
	found := false
	for _, a := range args {
		if a == flag {
			found = true
			continue
		}
		remaining = append(remaining, a)
	}
	return found, remaining
}

// flagValue extracts "--flag value" pairs.
func flagValue(args []string, flag string) (string, []string) {
	var remaining []string
	value := ""
	for i := 0; i < len(args); i++ {
		if args[i] == flag && i+1 < len(args) {
			value = args[i+1]
			i++
			continue
		}
		remaining = append(remaining, args[i])
	}
	return value, remaining
}

func emit(flags core.NonInteractiveFlags, data any, success bool) {
	if flags.Mode == core.OutputJSON {
		core.EmitCLISuccess(data)
		return
	}
	if flags.Mode == core.OutputQuiet {
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
	if success {
		tui.PrintSuccess("Done")
	}
}

func fail(flags core.NonInteractiveFlags, title string, err error) {
	if flags.Mode == core.OutputJSON {
		os.Exit(core.EmitCLIError(core.CLIErrorCodeForError(err), err.Error(), core.CLIExitCodeForError(err)))
	}
	tui.PrintError(title, err.Error())
	os.Exit(core.CLIExitCodeForError(err))
}

func main() {
	if len(os.Args) < 2 {
		tui.PrintHelp()
		os.Exit(0)
	}

	command := os.Args[1]

	if command == "--help" || command == "-h" || command == "help" {
		tui.PrintHelp()
		os.Exit(0)
	}

	if command == "--version" || command == "version" {
		fmt.Printf("ecosys %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
		os.Exit(0)
	}

	if command == "completion" {
		shell := ""
		if len(os.Args) > 2 {
			shell = os.Args[2]
		}
		script, err := cmd.Completion(shell)
		if err != nil {
			tui.PrintError("Completion", err.Error())
			os.Exit(core.ExitInvalidArguments)
		}
		fmt.Print(script)
		os.Exit(0)
	}

	if !core.IsGitInstalled() {
		tui.PrintError("Error", "git not found.")
		os.Exit(1)
	}

	flags, args := parseCommonFlags(os.Args[2:])
	ui := tui.SelectCallback(flags)

	cfgStore := core.NewFileConfigStore()
	cfg, err := cfgStore.Load()
	if err != nil {
		tui.PrintWarning("Config", "Ignoring unreadable global config: "+err.Error())
	}

	rootDir, args := flagValue(args, "--root")
	if rootDir == "" {
		rootDir = cfg.Root
	}
	if rootDir == "" {
		rootDir = "."
	}

	engine, err := core.NewEngine(core.ExpandHome(rootDir), ui, cfg)
	if err != nil {
		fail(flags, "Startup Failed", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	concurrencyStr, args := flagValue(args, "--concurrency")
	concurrency := 0
	if concurrencyStr != "" {
		concurrency, _ = strconv.Atoi(concurrencyStr)
	}
	dryRun, args := hasFlag(args, "--dry-run")

	switch command {
	case "install":
		continueOnError, _ := hasFlag(args, "--continue-on-error")
		result, err := core.NewInstallService(engine).Install(ctx, core.InstallOptions{
			DryRun:          dryRun,
			ContinueOnError: continueOnError,
			Concurrency:     concurrency,
		})
		if err != nil {
			fail(flags, "Install Failed", err)
		}
		emit(flags, result, result.Success)
		if !result.Success {
			os.Exit(core.ExitPartialFailure)
		}

	case "refresh":
		all, args := hasFlag(args, "--all")
		recursive, args := hasFlag(args, "--recursive")
		force, args := hasFlag(args, "--force")
		skipGit, args := hasFlag(args, "--skip-git")
		pkg := ""
		if len(args) > 0 {
			pkg = args[0]
		}
		if force && !dryRun && !ui.IsAutoApprove() {
			if !ui.AskConfirmation("Force refresh", "Remove node_modules, dist and lockfiles before rebuilding?") {
				os.Exit(0)
			}
		}
		result, err := core.NewRefreshService(engine).Refresh(ctx, core.RefreshOptions{
			Package:     pkg,
			All:         all,
			Recursive:   recursive,
			Force:       force,
			SkipGit:     skipGit,
			DryRun:      dryRun,
			AutoConfirm: ui.IsAutoApprove(),
			Concurrency: concurrency,
		})
		if err != nil {
			fail(flags, "Refresh Failed", err)
		}
		emit(flags, result, result.Success)
		if !result.Success {
			os.Exit(core.ExitPartialFailure)
		}

	case "pull":
		remote, args := flagValue(args, "--remote")
		rebase, args := hasFlag(args, "--rebase")
		continueOnError, _ := hasFlag(args, "--continue-on-error")
		result, err := core.NewPullService(engine).Pull(ctx, core.PullOptions{
			Remote:          remote,
			Rebase:          rebase,
			DryRun:          dryRun,
			ContinueOnError: continueOnError,
			Concurrency:     concurrency,
		})
		if err != nil {
			fail(flags, "Pull Failed", err)
		}
		emit(flags, result, result.Success)
		if !result.Success {
			os.Exit(core.ExitPartialFailure)
		}

	case "new":
		preset, args := flagValue(args, "--preset")
		skipGit, args := hasFlag(args, "--skip-git")
		skipManifest, args := hasFlag(args, "--skip-manifest")
		if len(args) == 0 {
			tui.PrintError("New", "usage: ecosys new <name> [--preset <name>]")
			os.Exit(core.ExitInvalidArguments)
		}
		result, err := core.NewNewService(engine).Create(ctx, core.NewPackageOptions{
			Name:         args[0],
			Preset:       preset,
			SkipGit:      skipGit,
			SkipManifest: skipManifest,
			DryRun:       dryRun,
		})
		if err != nil {
			fail(flags, "New Failed", err)
		}
		emit(flags, result, result.Success)

	case "rename":
		if len(args) < 2 {
			tui.PrintError("Rename", "usage: ecosys rename <old-name> <new-name> [--dry-run]")
			os.Exit(core.ExitInvalidArguments)
		}
		result, err := core.NewRenameService(engine).Rename(ctx, core.RenameOptions{
			OldName: args[0],
			NewName: args[1],
			DryRun:  dryRun,
		})
		if err != nil {
			fail(flags, "Rename Failed", err)
		}
		emit(flags, result, result.Success)
		if !result.Success {
			os.Exit(core.ExitPartialFailure)
		}

	case "audit":
		fix, _ := hasFlag(args, "--fix")
		result, err := core.NewAuditService(engine).Audit(ctx, core.AuditOptions{Fix: fix})
		if err != nil {
			fail(flags, "Audit Failed", err)
		}
		emit(flags, result, result.Success)
		if !result.Success {
			os.Exit(core.ExitPartialFailure)
		}

	case "status":
		reports, err := core.NewStatusService(engine).Status(ctx)
		if err != nil {
			fail(flags, "Status Failed", err)
		}
		emit(flags, reports, true)

	case "graph":
		rootsOnly, args := hasFlag(args, "--roots")
		leavesOnly, _ := hasFlag(args, "--leaves")
		graph, err := engine.Plan(ctx, "")
		if err != nil {
			fail(flags, "Graph Failed", err)
		}
		switch {
		case rootsOnly:
			emit(flags, graph.Roots, true)
		case leavesOnly:
			emit(flags, graph.Leaves, true)
		default:
			emit(flags, graph.Levels, true)
		}

	case "sbom":
		bom, err := core.NewSBOMGenerator(engine).Generate(ctx)
		if err != nil {
			fail(flags, "SBOM Failed", err)
		}
		fmt.Print(string(bom))

	case "watch":
		refresh := core.NewRefreshService(engine)
		err := core.NewWatchService(engine).Watch(ctx, func() error {
			_, err := refresh.Refresh(ctx, core.RefreshOptions{All: true, SkipGit: true, AutoConfirm: true})
			return err
		})
		if err != nil && ctx.Err() == nil {
			fail(flags, "Watch Failed", err)
		}

	default:
		tui.PrintError("Unknown Command", command)
		tui.PrintHelp()
		os.Exit(core.ExitInvalidArguments)
	}
}
