package dependencies

import (
	"io"

	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/repos/discovery"
	"github.com/temirov/whatgitbranch/internal/repos/filesystem"
	"github.com/temirov/whatgitbranch/internal/repos/prompt"
	"github.com/temirov/whatgitbranch/internal/repos/shared"
)

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveRepositoryDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveRepositoryDiscoverer(existing shared.RepositoryDiscoverer, fileSystem shared.FileSystem, options discovery.Options, logger *zap.Logger) shared.RepositoryDiscoverer {
	if existing != nil {
		return existing
	}
	return discovery.NewFilesystemRepositoryDiscoverer(ResolveFileSystem(fileSystem), options, logger)
}

// ResolveConfirmationPrompter returns the provided prompter or one reading from the supplied streams.
func ResolveConfirmationPrompter(existing shared.ConfirmationPrompter, input io.Reader, output io.Writer) shared.ConfirmationPrompter {
	if existing != nil {
		return existing
	}
	return prompt.NewIOConfirmationPrompter(input, output)
}
