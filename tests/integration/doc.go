// Package integration provides integration tests that run the full server
// against a real Redis instance and a real headless Chrome, both started via
// testcontainers.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration
