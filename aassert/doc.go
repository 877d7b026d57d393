// Package aassert provides assertions for entities built by factories,
// for use with the normal Go testing system.
//
// Use it alongside the stretchr/testify/assert package. The assertions
// follow the design decisions of testify/assert as close as possible:
// every assertion returns a bool indicating whether it was successful.
package aassert
