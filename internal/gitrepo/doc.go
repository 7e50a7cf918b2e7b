// Package gitrepo reads remote metadata from a working directory's VCS configuration.
//
// It parses remote URLs in the SSH, scp-like, and HTTP forms and infers the
// GitHub owner/name slug of the origin remote, which repository links rely on.
package gitrepo
