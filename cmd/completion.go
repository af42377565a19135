// Package cmd provides CLI utilities for ecosys
package cmd

import (
	"fmt"
	"strings"
)

// Commands available in ecosys
var commands = []string{
	"install",
	"refresh",
	"pull",
	"new",
	"rename",
	"audit",
	"status",
	"graph",
	"sbom",
	"watch",
	"completion",
	"version",
	"help",
}

// GenerateBashCompletion generates bash completion script
func GenerateBashCompletion() string {
	return fmt.Sprintf(`# bash completion for ecosys
_ecosys_completions() {
    local cur opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    opts="%s"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}
complete -F _ecosys_completions ecosys
`, strings.Join(commands, " "))
}

// GenerateZshCompletion generates zsh completion script
func GenerateZshCompletion() string {
	var b strings.Builder
	b.WriteString("#compdef ecosys\n\n_ecosys() {\n    local -a commands\n    commands=(\n")
	for _, c := range commands {
		b.WriteString(fmt.Sprintf("        '%s'\n", c))
	}
	b.WriteString("    )\n    _describe 'command' commands\n}\n\n_ecosys \"$@\"\n")
	return b.String()
}

// GenerateFishCompletion generates fish completion script
func GenerateFishCompletion() string {
	var b strings.Builder
	for _, c := range commands {
		b.WriteString(fmt.Sprintf("complete -c ecosys -n '__fish_use_subcommand' -a '%s'\n", c))
	}
	return b.String()
}

// Completion returns the completion script for the named shell, or an error
// message listing supported shells.
func Completion(shell string) (string, error) {
	switch shell {
	case "bash":
		return GenerateBashCompletion(), nil
	case "zsh":
		return GenerateZshCompletion(), nil
	case "fish":
		return GenerateFishCompletion(), nil
	default:
		return "", fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish)", shell)
	}
}
