// Package testing contains helper utilities used across tests: a fluent
// configuration builder and a fixture that wires pages, console and sessions
// the way the server does.
package testing

const (
	// testFilePermissions is the permission mode for creating test files.
	testFilePermissions = 0o600
)
