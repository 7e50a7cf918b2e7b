// Package coordinator tracks the repositories discovered for one run and designates the primary.
package coordinator
