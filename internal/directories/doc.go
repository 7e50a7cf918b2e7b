// Package directories provides maintenance commands for the cached directory list.
package directories
