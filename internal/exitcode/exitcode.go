// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, missing form fields).
	UserError = 1

	// AuthError indicates an auth/config error (rejected credentials,
	// not logged in, endpoints not configured).
	AuthError = 2

	// BackendError indicates a service or network error.
	BackendError = 3
)
