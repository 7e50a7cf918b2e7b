// Package primary provides commands that inspect and override the primary repository's head reference.
package primary
