package shared

import (
	"context"
	"io/fs"
)

const (
	// GitMetadataDirectoryNameConstant names the per-repository VCS metadata entry.
	GitMetadataDirectoryNameConstant = ".git"
	// GitHeadFileNameConstant names the head pointer file inside the metadata directory.
	GitHeadFileNameConstant = "HEAD"
	// GitConfigFileNameConstant names the repository configuration file inside the metadata directory.
	GitConfigFileNameConstant = "config"
	// OverrideMarkerFileNameConstant names the operator-written head reference override file.
	OverrideMarkerFileNameConstant = ".what-git-branch"
)

// FileSystem exposes filesystem operations required by repository services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	EvalSymlinks(path string) (string, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	Remove(path string) error
}

// ConfirmationPrompter collects user confirmations prior to mutating actions.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// RepositoryDiscoverer locates candidate repository directories beneath a root.
type RepositoryDiscoverer interface {
	DiscoverRepositories(executionContext context.Context, root string) ([]string, error)
}
