// Package testutil provides in-process fakes shared across package tests:
// wire-compatible fake agents and canned workflow collaborators.
package testutil
