// Package tui provides terminal user interface components and callbacks for
// ecosys: styled output, interactive confirmations, and execution progress.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/mark1russell7/ecosys/internal/version"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// PrintError displays an error message with styling to the terminal.
func PrintError(title, msg string) { fmt.Println(styleErr.Render("✖ " + title)); fmt.Println(msg) }

// PrintSuccess displays a success message with styling to the terminal.
func PrintSuccess(msg string) { fmt.Println(styleSuccess.Render("✔ " + msg)) }

// PrintInfo displays an informational message to the terminal.
func PrintInfo(msg string) { fmt.Println(styleDim.Render(msg)) }

// PrintWarning displays a warning message with styling to the terminal.
func PrintWarning(title, msg string) { fmt.Println(styleWarn.Render("! " + title)); fmt.Println(msg) }

// StyleTitle applies title styling to the given text string.
func StyleTitle(text string) string { return styleTitle.Render(text) }

// PrintHelp displays usage information for ecosys commands.
func PrintHelp() {
	fmt.Println(styleTitle.Render(fmt.Sprintf("ecosys %s", version.GetVersion())))
	fmt.Println("Orchestrate a multi-repo ecosystem: install, build, refresh and audit in dependency order")
	fmt.Println("\nCommands:")
	fmt.Println("  install [options]   Clone missing packages, then install+build the fleet in dependency order")
	fmt.Println("    --dry-run         Preview clones and builds without making changes")
	fmt.Println("    --continue-on-error  Keep going past failures and report them all")
	fmt.Println("    --concurrency <N> Max packages in flight per level (default: 4)")
	fmt.Println("  refresh [options] [package]")
	fmt.Println("                      Clean+install+build+commit+push a package or the fleet")
	fmt.Println("    --all             Refresh every package in dependency order")
	fmt.Println("    --recursive       Refresh the package and its prerequisites")
	fmt.Println("    --force           Remove node_modules/dist/lockfile first")
	fmt.Println("    --skip-git        Skip the commit+push phase")
	fmt.Println("    --dry-run         Print the plan without executing")
	fmt.Println("  pull [options]      git pull every package")
	fmt.Println("    --remote <name>   Remote to pull from")
	fmt.Println("    --rebase          Pull with rebase")
	fmt.Println("  new <name> [options]")
	fmt.Println("                      Scaffold a package, init git, register in the manifest")
	fmt.Println("    --preset <name>   Scaffolding preset")
	fmt.Println("    --skip-git        Skip git init and remote creation")
	fmt.Println("    --skip-manifest   Do not register the package")
	fmt.Println("  rename <old> <new>  Rename a package across the whole fleet")
	fmt.Println("    --dry-run         Collect planned edits and show diffs without writing")
	fmt.Println("  audit [options]     Check packages against the project template")
	fmt.Println("    --fix             Create whitelisted missing files")
	fmt.Println("  status              Show per-package branch, remote and dependencies")
	fmt.Println("  graph [options]     Print the leveled dependency plan")
	fmt.Println("    --roots | --leaves  Print only roots or leaves")
	fmt.Println("  sbom                Emit a CycloneDX BOM of the ecosystem")
	fmt.Println("  watch               Re-run refresh when the manifest changes")
	fmt.Println("  completion <shell>  Print shell completion (bash, zsh, fish)")
	fmt.Println("  version             Print version information")
	fmt.Println("\nGlobal flags: --yes/-y, --quiet/-q, --json, --root <dir>")
}
