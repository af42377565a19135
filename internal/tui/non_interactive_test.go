package tui

import (
	"testing"

	"github.com/mark1russell7/ecosys/internal/core"
)

func TestNonInteractiveConfirmation(t *testing.T) {
	// --yes auto-approves.
	yes := NewNonInteractiveTUICallback(core.NonInteractiveFlags{Yes: true, Mode: core.OutputQuiet})
	if !yes.AskConfirmation("Force refresh", "destroy build artifacts?") {
		t.Error("--yes did not auto-approve")
	}
	if !yes.IsAutoApprove() {
		t.Error("IsAutoApprove = false with --yes")
	}

	// Without --yes, non-interactive mode declines for safety.
	no := NewNonInteractiveTUICallback(core.NonInteractiveFlags{Mode: core.OutputQuiet})
	if no.AskConfirmation("Force refresh", "destroy build artifacts?") {
		t.Error("non-interactive confirmation approved without --yes")
	}
}

func TestNonInteractiveOutputMode(t *testing.T) {
	for _, mode := range []core.OutputMode{core.OutputNormal, core.OutputQuiet, core.OutputJSON} {
		cb := NewNonInteractiveTUICallback(core.NonInteractiveFlags{Mode: mode})
		if cb.GetOutputMode() != mode {
			t.Errorf("GetOutputMode = %v, want %v", cb.GetOutputMode(), mode)
		}
	}
}
