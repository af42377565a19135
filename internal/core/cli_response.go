package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark1russell7/ecosys/internal/agg"
)

// CLIResponse is the structured JSON envelope for machine-readable output.
//
// Schema:
//
//	{
//	  "success": true|false,
//	  "data": { ... },          // Command-specific payload (omitted on error)
//	  "error": {                 // Present only on failure
//	    "code": "CYCLE_DETECTED",
//	    "message": "Human-readable description"
//	  }
//	}
type CLIResponse struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Error   *CLIErrorDetail `json:"error,omitempty"`
}

// CLIErrorDetail contains machine-readable error code and human-readable message.
type CLIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CLI exit codes.
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitPackageNotFound  = 2
	ExitInvalidArguments = 3
	ExitManifestError    = 4
	ExitCycleDetected    = 5
	ExitPartialFailure   = 6
)

// CLI error codes for structured JSON error responses.
const (
	ErrCodePackageNotFound   = "PACKAGE_NOT_SCANNED"
	ErrCodeManifestMissing   = "MANIFEST_MISSING"
	ErrCodeManifestInvalid   = "MANIFEST_INVALID"
	ErrCodeCycleDetected     = "CYCLE_DETECTED"
	ErrCodeInstallFailed     = "INSTALL_FAILED"
	ErrCodeBuildFailed       = "BUILD_FAILED"
	ErrCodeGitFailed         = "GIT_FAILED"
	ErrCodeCloneFailed       = "CLONE_FAILED"
	ErrCodeProcedureNotFound = "PROCEDURE_NOT_FOUND"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeInvalidArguments  = "INVALID_ARGUMENTS"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// EmitCLISuccess writes a successful CLIResponse as JSON to stdout.
func EmitCLISuccess(data interface{}) {
	resp := CLIResponse{Success: true, Data: data}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp) //nolint:errcheck
}

// EmitCLIError writes an error CLIResponse as JSON to stdout.
// Returns the exit code for the caller to use with os.Exit.
func EmitCLIError(code string, message string, exitCode int) int {
	resp := CLIResponse{
		Success: false,
		Error:   &CLIErrorDetail{Code: code, Message: message},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp) //nolint:errcheck
	return exitCode
}

// CLIExitCodeForError maps structured error types to CLI exit codes.
func CLIExitCodeForError(err error) int {
	switch {
	case IsPackageNotScanned(err):
		return ExitPackageNotFound
	case IsCycleDetected(err):
		return ExitCycleDetected
	case IsManifestInvalid(err), err == ErrManifestMissing:
		return ExitManifestError
	default:
		return ExitGeneralError
	}
}

// CLIErrorCodeForError maps structured error types to CLI error code strings.
func CLIErrorCodeForError(err error) string {
	switch {
	case IsPackageNotScanned(err):
		return ErrCodePackageNotFound
	case IsCycleDetected(err):
		return ErrCodeCycleDetected
	case IsManifestInvalid(err):
		return ErrCodeManifestInvalid
	case err == ErrManifestMissing:
		return ErrCodeManifestMissing
	case IsInstallFailed(err):
		return ErrCodeInstallFailed
	case IsBuildFailed(err):
		return ErrCodeBuildFailed
	case IsGitFailed(err):
		return ErrCodeGitFailed
	case IsCloneFailed(err):
		return ErrCodeCloneFailed
	case IsTimeout(err):
		return ErrCodeTimeout
	case agg.IsProcedureNotFound(err):
		return ErrCodeProcedureNotFound
	default:
		return ErrCodeInternalError
	}
}

// FormatCLIMessage formats a simple text message for non-JSON CLI output.
func FormatCLIMessage(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
