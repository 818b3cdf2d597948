// Package exitcode maps run outcomes onto stable process exit codes.
package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates a malformed request, task, or plan configuration
	ConfigError = 3

	// AuthError indicates an authentication failure against a backend
	AuthError = 5

	// NetworkError indicates a network connectivity or streaming issue
	NetworkError = 6

	// Interrupted indicates the run was cancelled by the user
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Coded errors map by their code family; everything else falls back to
// message sniffing.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var fe *errors.ForgeError
	if stderrors.As(err, &fe) {
		code := string(fe.Code)
		switch {
		case fe.Code == errors.ErrCodeBackendAuth:
			return AuthError
		case strings.HasPrefix(code, "TASK-"), strings.HasPrefix(code, "PLAN-"):
			return ConfigError
		case strings.HasPrefix(code, "BACKEND-"), strings.HasPrefix(code, "STREAM-"):
			return NetworkError
		default:
			return GeneralError
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "api key") {
		return AuthError
	}
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error (request, task, or plan)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network or streaming error"
	case Interrupted:
		return "Cancelled by user"
	default:
		return "Unknown error"
	}
}
