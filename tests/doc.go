// Package tests starts the databases, integration tests of factories persist into.
//
// All functionality is behind the build tag integration and needs access to a docker socket:
//
//	go test -tags=integration ./...
package tests
