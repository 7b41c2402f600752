// Package errors provides classified error primitives used across previewnote.
//
// Errors carry a category (config, auth, network, ...), a severity, a retry
// strategy and structured context. The CLI adapter turns them into exit codes.
//
// Example usage:
//
//	err := errors.NetworkError("failed to execute GitLab request").
//		WithCause(cause).
//		WithContext("url", req.URL.String()).
//		Build()
package errors
