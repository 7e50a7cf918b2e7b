package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	// DefaultMaximumDepthConstant bounds how many directory levels below the root are inspected.
	DefaultMaximumDepthConstant = 12
	// DefaultExcludedDirectoryNameConstant is skipped unless exclusions are configured explicitly.
	DefaultExcludedDirectoryNameConstant = "node_modules"

	scanRootRequiredMessageConstant     = "scan root must be provided"
	scanRootUnavailableTemplateConstant = "scan root %s is not a readable directory: %w"
	scanRootNotDirectoryMessageConstant = "not a directory"
	readDirectoryFailedLogMessage       = "Skipping unreadable directory during scan"
	symlinkResolveFailedLogMessage      = "Skipping unresolvable symbolic link during scan"
	directoryPathLogFieldConstant       = "directory"
)

var (
	// ErrScanRootRequired indicates an empty scan root.
	ErrScanRootRequired = errors.New(scanRootRequiredMessageConstant)

	errScanRootNotDirectory = errors.New(scanRootNotDirectoryMessageConstant)
)

// Options bounds the filesystem walk.
type Options struct {
	MaximumDepth           int
	ExcludedDirectoryNames []string
	FollowSymlinks         bool
}

// DefaultOptions returns the walk bounds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaximumDepth:           DefaultMaximumDepthConstant,
		ExcludedDirectoryNames: []string{DefaultExcludedDirectoryNameConstant},
	}
}

// FilesystemRepositoryDiscoverer locates repository directories on disk.
type FilesystemRepositoryDiscoverer struct {
	fileSystem shared.FileSystem
	options    Options
	logger     *zap.Logger
}

type pendingDirectory struct {
	path  string
	depth int
}

// NewFilesystemRepositoryDiscoverer constructs a discoverer walking the provided filesystem.
func NewFilesystemRepositoryDiscoverer(fileSystem shared.FileSystem, options Options, logger *zap.Logger) *FilesystemRepositoryDiscoverer {
	if options.MaximumDepth <= 0 {
		options.MaximumDepth = DefaultMaximumDepthConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemRepositoryDiscoverer{fileSystem: fileSystem, options: options, logger: logger}
}

// DiscoverRepositories walks the root and returns normalized, sorted directories that hold
// VCS metadata or an override marker. Nested repositories are reported alongside their parents.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(executionContext context.Context, root string) ([]string, error) {
	if len(root) == 0 {
		return nil, ErrScanRootRequired
	}

	normalizedRoot, normalizeError := repository.NormalizePath(discoverer.fileSystem, root)
	if normalizeError != nil {
		return nil, normalizeError
	}

	rootInfo, statError := discoverer.fileSystem.Stat(normalizedRoot)
	if statError != nil {
		return nil, fmt.Errorf(scanRootUnavailableTemplateConstant, normalizedRoot, statError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(scanRootUnavailableTemplateConstant, normalizedRoot, errScanRootNotDirectory)
	}

	visitedDirectories := make(map[string]struct{})
	discovered := make(map[string]struct{})
	repositories := make([]string, 0)
	stack := []pendingDirectory{{path: filepath.Clean(normalizedRoot), depth: 0}}

	for len(stack) > 0 {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !discoverer.markVisited(visitedDirectories, current.path) {
			continue
		}

		if repository.Qualifies(discoverer.fileSystem, current.path) {
			normalizedPath, pathError := repository.NormalizePath(discoverer.fileSystem, current.path)
			if pathError == nil {
				if _, seen := discovered[normalizedPath]; !seen {
					discovered[normalizedPath] = struct{}{}
					repositories = append(repositories, normalizedPath)
				}
			}
		}

		if current.depth >= discoverer.options.MaximumDepth {
			continue
		}

		entries, readError := discoverer.fileSystem.ReadDir(current.path)
		if readError != nil {
			discoverer.logger.Debug(readDirectoryFailedLogMessage, zap.String(directoryPathLogFieldConstant, current.path), zap.Error(readError))
			continue
		}

		for entryIndex := len(entries) - 1; entryIndex >= 0; entryIndex-- {
			entry := entries[entryIndex]
			if discoverer.skipsEntry(entry.Name()) {
				continue
			}
			childPath := filepath.Join(current.path, entry.Name())
			if discoverer.descendsInto(entry, childPath) {
				stack = append(stack, pendingDirectory{path: childPath, depth: current.depth + 1})
			}
		}
	}

	sort.Strings(repositories)
	return repositories, nil
}

func (discoverer *FilesystemRepositoryDiscoverer) skipsEntry(entryName string) bool {
	if entryName == shared.GitMetadataDirectoryNameConstant {
		return true
	}
	return lo.Contains(discoverer.options.ExcludedDirectoryNames, entryName)
}

func (discoverer *FilesystemRepositoryDiscoverer) descendsInto(entry fs.DirEntry, childPath string) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	if !discoverer.options.FollowSymlinks {
		return false
	}
	targetInfo, statError := discoverer.fileSystem.Stat(childPath)
	return statError == nil && targetInfo.IsDir()
}

// markVisited records the real path of a directory and reports false when it was already walked.
func (discoverer *FilesystemRepositoryDiscoverer) markVisited(visitedDirectories map[string]struct{}, directoryPath string) bool {
	visitKey := directoryPath
	if discoverer.options.FollowSymlinks {
		resolvedPath, resolveError := discoverer.fileSystem.EvalSymlinks(directoryPath)
		if resolveError != nil {
			discoverer.logger.Debug(symlinkResolveFailedLogMessage, zap.String(directoryPathLogFieldConstant, directoryPath), zap.Error(resolveError))
			return false
		}
		visitKey = resolvedPath
	}
	if _, visited := visitedDirectories[visitKey]; visited {
		return false
	}
	visitedDirectories[visitKey] = struct{}{}
	return true
}
