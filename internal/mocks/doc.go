// Package mocks provides testify mocks for the interfaces that cross package
// boundaries.
package mocks
