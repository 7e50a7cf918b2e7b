package coordinator

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	directorySourceRequiredMessageConstant = "coordinator directory source must be provided"
	fileSystemRequiredMessageConstant      = "coordinator filesystem must be provided"

	primaryDirectoryMissingLogMessage  = "Configured primary directory is not a repository; no primary designated"
	repositoryCreationFailedLogMessage = "Skipping directory that cannot be tracked"
	gitHubInferenceFailedLogMessage    = "Unable to infer GitHub repository from origin remote"
	primaryDesignatedLogMessage        = "Designated primary repository"
	directoriesCacheFailedLogMessage   = "Directories cache write failed; continuing with discovered repositories"

	directoryLogFieldConstant = "directory"
	sourceLogFieldConstant    = "source"

	primarySourceConfiguredConstant = "configured"
	primarySourceInferredConstant   = "inferred"
)

var (
	// ErrDirectorySourceRequired indicates the coordinator was constructed without a Locator.
	ErrDirectorySourceRequired = errors.New(directorySourceRequiredMessageConstant)
	// ErrFileSystemRequired indicates the coordinator was constructed without a filesystem.
	ErrFileSystemRequired = errors.New(fileSystemRequiredMessageConstant)
)

// DirectorySource supplies candidate repository directories.
type DirectorySource interface {
	Directories(executionContext context.Context) ([]string, error)
}

// GitHubRemoteReader infers a GitHub owner/name slug from a working directory.
type GitHubRemoteReader interface {
	GitHubRepository(directoryPath string) (string, error)
}

// Options configures primary designation, display names, and GitHub links.
type Options struct {
	PrimaryDirectory        string
	PrimaryGitHubRepository string
	GitHubRepositories      map[string]string
	DisplayNames            map[string]string
	InferGitHubRepository   bool
}

// Dependencies carries Coordinator collaborators.
type Dependencies struct {
	DirectorySource DirectorySource
	FileSystem      shared.FileSystem
	RemoteReader    GitHubRemoteReader
	Logger          *zap.Logger
}

// Coordinator owns the repository set for one run and designates its primary.
type Coordinator struct {
	directorySource DirectorySource
	fileSystem      shared.FileSystem
	remoteReader    GitHubRemoteReader
	logger          *zap.Logger

	primaryDirectory        string
	primaryGitHubRepository string
	gitHubRepositories      map[string]string
	displayNames            map[string]string
	inferGitHubRepository   bool

	mutex           sync.Mutex
	repositories    []*repository.Repository
	byPath          map[string]*repository.Repository
	primary         *repository.Repository
	primaryResolved bool

	inferenceMutex sync.Mutex
	inferredSlugs  map[string]string
}

// New constructs a Coordinator.
func New(options Options, dependencies Dependencies) (*Coordinator, error) {
	if dependencies.DirectorySource == nil {
		return nil, ErrDirectorySourceRequired
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemRequired
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	coordinator := &Coordinator{
		directorySource:         dependencies.DirectorySource,
		fileSystem:              dependencies.FileSystem,
		remoteReader:            dependencies.RemoteReader,
		logger:                  logger,
		primaryGitHubRepository: strings.TrimSpace(options.PrimaryGitHubRepository),
		inferGitHubRepository:   options.InferGitHubRepository,
		byPath:                  make(map[string]*repository.Repository),
		inferredSlugs:           make(map[string]string),
	}
	coordinator.gitHubRepositories = coordinator.normalizeKeys(options.GitHubRepositories)
	coordinator.displayNames = coordinator.normalizeKeys(options.DisplayNames)

	if trimmedPrimary := strings.TrimSpace(options.PrimaryDirectory); len(trimmedPrimary) > 0 {
		normalizedPrimary, normalizeError := repository.NormalizePath(dependencies.FileSystem, trimmedPrimary)
		if normalizeError != nil {
			return nil, normalizeError
		}
		coordinator.primaryDirectory = normalizedPrimary
	}

	return coordinator, nil
}

func (coordinator *Coordinator) normalizeKeys(entries map[string]string) map[string]string {
	normalized := make(map[string]string, len(entries))
	for entryPath, entryValue := range entries {
		normalizedPath, normalizeError := repository.NormalizePath(coordinator.fileSystem, entryPath)
		trimmedValue := strings.TrimSpace(entryValue)
		if normalizeError != nil || len(trimmedValue) == 0 {
			continue
		}
		normalized[normalizedPath] = trimmedValue
	}
	return normalized
}

// SetRepositories discovers directories and tracks one Repository per path. A configured primary
// outside the discovered set is merged in even when discovery finds nothing. Once the set is
// non-empty further calls do nothing. The returned error is the Locator's cache write failure.
func (coordinator *Coordinator) SetRepositories(executionContext context.Context) error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.setRepositoriesLocked(executionContext)
}

func (coordinator *Coordinator) setRepositoriesLocked(executionContext context.Context) error {
	if len(coordinator.repositories) > 0 {
		return nil
	}

	directories, directoriesError := coordinator.directorySource.Directories(executionContext)
	for _, directory := range directories {
		coordinator.trackLocked(directory)
	}
	coordinator.resolvePrimaryLocked()
	return directoriesError
}

func (coordinator *Coordinator) trackLocked(directory string) *repository.Repository {
	normalizedPath, normalizeError := repository.NormalizePath(coordinator.fileSystem, directory)
	if normalizeError != nil {
		coordinator.logger.Debug(repositoryCreationFailedLogMessage, zap.String(directoryLogFieldConstant, directory), zap.Error(normalizeError))
		return nil
	}
	if existing, tracked := coordinator.byPath[normalizedPath]; tracked {
		return existing
	}

	created, creationError := repository.New(
		normalizedPath,
		repository.Dependencies{FileSystem: coordinator.fileSystem, GitHubRepositoryResolver: coordinator},
		repository.Options{DisplayName: coordinator.displayNames[normalizedPath]},
	)
	if creationError != nil {
		coordinator.logger.Debug(repositoryCreationFailedLogMessage, zap.String(directoryLogFieldConstant, directory), zap.Error(creationError))
		return nil
	}
	coordinator.byPath[normalizedPath] = created
	coordinator.repositories = append(coordinator.repositories, created)
	return created
}

// Primary returns the primary repository, or nil when none is configured or inferable.
func (coordinator *Coordinator) Primary(executionContext context.Context) *repository.Repository {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if setError := coordinator.setRepositoriesLocked(executionContext); setError != nil {
		coordinator.logger.Warn(directoriesCacheFailedLogMessage, zap.Error(setError))
	}
	coordinator.resolvePrimaryLocked()
	return coordinator.primary
}

func (coordinator *Coordinator) resolvePrimaryLocked() {
	if coordinator.primaryResolved {
		return
	}
	coordinator.primaryResolved = true

	if len(coordinator.primaryDirectory) > 0 {
		if !repository.Qualifies(coordinator.fileSystem, coordinator.primaryDirectory) {
			coordinator.logger.Warn(primaryDirectoryMissingLogMessage, zap.String(directoryLogFieldConstant, coordinator.primaryDirectory))
			return
		}
		coordinator.designateLocked(coordinator.trackLocked(coordinator.primaryDirectory), primarySourceConfiguredConstant)
		return
	}

	coordinator.designateLocked(shallowestUnique(coordinator.repositories), primarySourceInferredConstant)
}

func (coordinator *Coordinator) designateLocked(candidate *repository.Repository, source string) {
	if candidate == nil {
		return
	}
	candidate.MarkPrimary()
	coordinator.primary = candidate
	coordinator.logger.Debug(primaryDesignatedLogMessage, zap.String(directoryLogFieldConstant, candidate.Path()), zap.String(sourceLogFieldConstant, source))
}

// shallowestUnique returns the repository with strictly the fewest path segments, nil on ties.
func shallowestUnique(repositories []*repository.Repository) *repository.Repository {
	if len(repositories) == 0 {
		return nil
	}
	depthCounts := lo.CountValuesBy(repositories, func(candidate *repository.Repository) int {
		return candidate.Depth()
	})
	shallowest := lo.MinBy(repositories, func(candidate *repository.Repository, current *repository.Repository) bool {
		return candidate.Depth() < current.Depth()
	})
	if depthCounts[shallowest.Depth()] != 1 {
		return nil
	}
	return shallowest
}

// Repositories returns the tracked repositories in discovery order.
func (coordinator *Coordinator) Repositories(executionContext context.Context) []*repository.Repository {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if setError := coordinator.setRepositoriesLocked(executionContext); setError != nil {
		coordinator.logger.Warn(directoriesCacheFailedLogMessage, zap.Error(setError))
	}
	return append([]*repository.Repository(nil), coordinator.repositories...)
}

// SortedRepositories returns the tracked repositories ordered naturally by display name.
func (coordinator *Coordinator) SortedRepositories(executionContext context.Context) []*repository.Repository {
	sorted := coordinator.Repositories(executionContext)
	sort.SliceStable(sorted, func(leftIndex int, rightIndex int) bool {
		leftName, rightName := sorted[leftIndex].Name(), sorted[rightIndex].Name()
		if !strings.EqualFold(leftName, rightName) {
			return NaturalLess(leftName, rightName)
		}
		return sorted[leftIndex].Path() < sorted[rightIndex].Path()
	})
	return sorted
}

// Lookup finds a tracked repository by directory path.
func (coordinator *Coordinator) Lookup(executionContext context.Context, directory string) (*repository.Repository, bool) {
	normalizedPath, normalizeError := repository.NormalizePath(coordinator.fileSystem, directory)
	if normalizeError != nil {
		return nil, false
	}
	for _, tracked := range coordinator.Repositories(executionContext) {
		if tracked.Path() == normalizedPath {
			return tracked, true
		}
	}
	return nil, false
}

// ResolveGitHubRepository implements repository.GitHubRepositoryResolver.
func (coordinator *Coordinator) ResolveGitHubRepository(target *repository.Repository) string {
	if configuredSlug, configured := coordinator.gitHubRepositories[target.Path()]; configured {
		return configuredSlug
	}
	if target.IsPrimary() && len(coordinator.primaryGitHubRepository) > 0 {
		return coordinator.primaryGitHubRepository
	}
	if !coordinator.inferGitHubRepository || coordinator.remoteReader == nil {
		return ""
	}

	coordinator.inferenceMutex.Lock()
	defer coordinator.inferenceMutex.Unlock()
	if inferredSlug, inferred := coordinator.inferredSlugs[target.Path()]; inferred {
		return inferredSlug
	}
	inferredSlug, inferenceError := coordinator.remoteReader.GitHubRepository(target.Path())
	if inferenceError != nil {
		coordinator.logger.Debug(gitHubInferenceFailedLogMessage, zap.String(directoryLogFieldConstant, target.Path()), zap.Error(inferenceError))
		inferredSlug = ""
	}
	coordinator.inferredSlugs[target.Path()] = inferredSlug
	return inferredSlug
}

var _ repository.GitHubRepositoryResolver = (*Coordinator)(nil)
