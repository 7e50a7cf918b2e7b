// Package session turns repository configuration and an invocation kind into a Locator and
// Coordinator for one run, sharing one cache database across runs of a process.
package session
