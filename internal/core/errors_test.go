package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		err     error
		matches func(error) bool
		name    string
	}{
		{&ManifestInvalidError{Path: "/m"}, IsManifestInvalid, "manifest invalid"},
		{NewPackageNotScannedError("x"), IsPackageNotScanned, "not scanned"},
		{&CycleDetectedError{Nodes: []string{"a", "b"}}, IsCycleDetected, "cycle"},
		{&CleanupFailedError{Path: "/p/dist", Cause: errors.New("EACCES")}, IsCleanupFailed, "cleanup"},
		{&InstallFailedError{Package: "x", Stderr: "boom"}, IsInstallFailed, "install"},
		{&BuildFailedError{Package: "x"}, IsBuildFailed, "build"},
		{NewGitFailedError("push", errors.New("remote")), IsGitFailed, "git"},
		{&CloneFailedError{URL: "u"}, IsCloneFailed, "clone"},
		{&TimeoutError{Phase: "install", Limit: "5m"}, IsTimeout, "timeout"},
	}

	for _, tc := range tests {
		if !tc.matches(tc.err) {
			t.Errorf("%s: helper did not match its own type", tc.name)
		}
		// Helpers see through wrapping.
		if !tc.matches(fmt.Errorf("outer: %w", tc.err)) {
			t.Errorf("%s: helper did not match wrapped error", tc.name)
		}
		if tc.matches(errors.New("unrelated")) {
			t.Errorf("%s: helper matched an unrelated error", tc.name)
		}
	}
}

func TestErrorMessagesCarryContextAndFix(t *testing.T) {
	errs := []error{
		&CycleDetectedError{Nodes: []string{"a", "b", "c"}},
		NewPackageNotScannedError("ghost"),
		&TimeoutError{Phase: "install", Limit: "5m"},
	}
	for _, err := range errs {
		msg := err.Error()
		if !stringsContains(msg, "Context:") || !stringsContains(msg, "Fix:") {
			t.Errorf("message lacks Context/Fix sections: %q", msg)
		}
	}
}

func TestCycleErrorNamesEveryNode(t *testing.T) {
	err := &CycleDetectedError{Nodes: []string{"a", "b", "c"}}
	for _, n := range err.Nodes {
		if !stringsContains(err.Error(), n) {
			t.Errorf("cycle message missing node %s: %q", n, err.Error())
		}
	}
}

func TestGitFailedUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewGitFailedError("push", cause)
	if !errors.Is(err, cause) {
		t.Error("GitFailedError does not unwrap to its cause")
	}
}
