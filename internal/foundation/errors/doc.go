// Package errors provides the classified error type shared by termsite packages.
//
// A ClassifiedError carries a category, a severity, a retry strategy and a small
// context map. Errors are created through the fluent ErrorBuilder:
//
//	err := errors.NotFoundError("page not found").
//		WithContext("page", id).
//		Build()
//
// HTTPErrorAdapter and CLIErrorAdapter translate classified errors into HTTP
// responses and process exit codes.
package errors
