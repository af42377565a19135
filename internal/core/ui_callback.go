package core

// UICallback abstracts presentation so services never print directly. The
// interactive and non-interactive implementations live in internal/tui; the
// silent one here backs tests and nested invocations.
type UICallback interface {
	ShowError(title, message string)
	ShowSuccess(message string)
	ShowWarning(title, message string)
	// AskConfirmation prompts for yes/no; non-interactive implementations
	// answer from flags.
	AskConfirmation(title, message string) bool
	GetOutputMode() OutputMode
	IsAutoApprove() bool
}

// SilentUICallback discards all output and declines confirmations. Used in
// tests and when a workflow runs as a sub-step of another.
type SilentUICallback struct{}

// ShowError discards the message.
func (s *SilentUICallback) ShowError(_, _ string) {}

// ShowSuccess discards the message.
func (s *SilentUICallback) ShowSuccess(_ string) {}

// ShowWarning discards the message.
func (s *SilentUICallback) ShowWarning(_, _ string) {}

// AskConfirmation declines.
func (s *SilentUICallback) AskConfirmation(_, _ string) bool { return false }

// GetOutputMode returns quiet.
func (s *SilentUICallback) GetOutputMode() OutputMode { return OutputQuiet }

// IsAutoApprove returns false.
func (s *SilentUICallback) IsAutoApprove() bool { return false }
