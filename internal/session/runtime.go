package session

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/cache"
	"github.com/temirov/whatgitbranch/internal/coordinator"
	"github.com/temirov/whatgitbranch/internal/gitrepo"
	"github.com/temirov/whatgitbranch/internal/locator"
	"github.com/temirov/whatgitbranch/internal/repos/dependencies"
	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	cacheUnavailableLogMessage      = "Directories cache unavailable; continuing without it"
	leaseUnavailableLogMessage      = "Scan lease unavailable; scans run without it"
	storeCreationFailedLogMessage   = "Unable to open directories store"
	cacheDirectoryLogFieldConstant  = "cache_directory"
	backendLogFieldConstant         = "backend"
	locatorCreationTemplateConstant = "unable to create locator: %w"
	coordinatorCreationTemplate     = "unable to create coordinator: %w"
	hiddenDirectoryInvalidMessage   = "Ignoring unresolvable hidden directory"
	directoryLogFieldConstant       = "directory"
)

// Dependencies carries collaborators shared by every run of a Runtime.
type Dependencies struct {
	FileSystem shared.FileSystem
	Discoverer shared.RepositoryDiscoverer
	Database   *badger.DB
	Observer   locator.Observer
	Logger     *zap.Logger
}

// Runtime holds process-wide resources: the cache database, its stores, and the scan lease.
type Runtime struct {
	configuration Configuration
	fileSystem    shared.FileSystem
	discoverer    shared.RepositoryDiscoverer
	observer      locator.Observer
	logger        *zap.Logger
	remoteReader  *gitrepo.RemoteReader

	database     *badger.DB
	ownsDatabase bool
	cacheError   error
	lease        *cache.LeaseManager
	storesByKind map[cache.Backend]cache.Store
}

// RuntimeProvider supplies the process Runtime to commands once configuration is loaded.
type RuntimeProvider func() (*Runtime, error)

// Session is the Locator and Coordinator built for one run.
type Session struct {
	Locator     *locator.Locator
	Coordinator *coordinator.Coordinator
}

// NewRuntime opens the cache database unless one is supplied. A database that cannot be opened leaves
// the runtime usable with an unavailable cache; CacheError reports the cause.
func NewRuntime(configuration Configuration, runtimeDependencies Dependencies) *Runtime {
	logger := runtimeDependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := dependencies.ResolveFileSystem(runtimeDependencies.FileSystem)

	runtime := &Runtime{
		configuration: configuration,
		fileSystem:    fileSystem,
		discoverer:    dependencies.ResolveRepositoryDiscoverer(runtimeDependencies.Discoverer, fileSystem, configuration.DiscoveryOptions(), logger),
		observer:      runtimeDependencies.Observer,
		logger:        logger,
		remoteReader:  gitrepo.NewRemoteReader(fileSystem),
		database:      runtimeDependencies.Database,
		storesByKind:  make(map[cache.Backend]cache.Store),
	}

	if runtime.database == nil {
		openedDatabase, openError := cache.OpenDatabase(
			cache.DatabaseConfiguration{Directory: configuration.Cache.Directory, InMemory: configuration.Cache.InMemory},
			logger,
		)
		if openError != nil {
			logger.Warn(cacheUnavailableLogMessage, zap.String(cacheDirectoryLogFieldConstant, configuration.Cache.Directory), zap.Error(openError))
			runtime.cacheError = openError
			return runtime
		}
		runtime.database = openedDatabase
		runtime.ownsDatabase = true
	}

	leaseManager, leaseError := cache.NewLeaseManager(runtime.database)
	if leaseError != nil {
		logger.Debug(leaseUnavailableLogMessage, zap.Error(leaseError))
	} else {
		runtime.lease = leaseManager
	}

	for _, backend := range []cache.Backend{cache.BackendDurable, cache.BackendExpiring} {
		store, storeError := cache.NewStore(runtime.database, backend, configuration.Cache.TimeToLive)
		if storeError != nil {
			logger.Warn(storeCreationFailedLogMessage, zap.String(backendLogFieldConstant, backend.String()), zap.Error(storeError))
			continue
		}
		runtime.storesByKind[backend] = store
	}

	return runtime
}

// CacheError returns why the cache database could not be opened, or nil.
func (runtime *Runtime) CacheError() error {
	return runtime.cacheError
}

// Configuration returns the configuration the runtime was built from.
func (runtime *Runtime) Configuration() Configuration {
	return runtime.configuration
}

// NewSession builds a fresh Locator and Coordinator for one invocation.
func (runtime *Runtime) NewSession(invocation locator.Invocation) (*Session, error) {
	locatorDependencies := locator.Dependencies{
		FileSystem:    runtime.fileSystem,
		Discoverer:    runtime.discoverer,
		StoreResolver: runtime.resolveStore,
		Observer:      runtime.observer,
		Logger:        runtime.logger,
	}
	if runtime.lease != nil {
		locatorDependencies.ScanLease = runtime.lease
	}

	directoryLocator, locatorError := locator.New(
		locator.Options{
			Root:               runtime.configuration.Root,
			IncludeDirectories: runtime.configuration.IncludeDirectories,
			Directories:        runtime.configuration.Directories,
			ScanWhen:           runtime.configuration.ScanWhen(),
			Invocation:         invocation,
			LeaseTimeToLive:    runtime.configuration.Scan.LeaseTimeToLive,
		},
		locatorDependencies,
	)
	if locatorError != nil {
		return nil, fmt.Errorf(locatorCreationTemplateConstant, locatorError)
	}

	repositoryCoordinator, coordinatorError := coordinator.New(
		coordinator.Options{
			PrimaryDirectory:        runtime.configuration.PrimaryDirectory,
			PrimaryGitHubRepository: runtime.configuration.PrimaryGitHubRepository,
			GitHubRepositories:      runtime.configuration.GitHubRepositoryMap(),
			DisplayNames:            runtime.configuration.DisplayNameMap(),
			InferGitHubRepository:   runtime.configuration.InferGitHubRepository,
		},
		coordinator.Dependencies{
			DirectorySource: directoryLocator,
			FileSystem:      runtime.fileSystem,
			RemoteReader:    runtime.remoteReader,
			Logger:          runtime.logger,
		},
	)
	if coordinatorError != nil {
		return nil, fmt.Errorf(coordinatorCreationTemplate, coordinatorError)
	}

	return &Session{Locator: directoryLocator, Coordinator: repositoryCoordinator}, nil
}

// VisibleRepositories drops repositories listed in hidden_directories, keeping order.
func (runtime *Runtime) VisibleRepositories(repositories []*repository.Repository) []*repository.Repository {
	if len(runtime.configuration.HiddenDirectories) == 0 {
		return repositories
	}
	hiddenPaths := make(map[string]struct{}, len(runtime.configuration.HiddenDirectories))
	for _, hiddenDirectory := range runtime.configuration.HiddenDirectories {
		normalizedPath, normalizeError := repository.NormalizePath(runtime.fileSystem, hiddenDirectory)
		if normalizeError != nil {
			runtime.logger.Debug(hiddenDirectoryInvalidMessage, zap.String(directoryLogFieldConstant, hiddenDirectory), zap.Error(normalizeError))
			continue
		}
		hiddenPaths[normalizedPath] = struct{}{}
	}
	return lo.Filter(repositories, func(tracked *repository.Repository, _ int) bool {
		_, hidden := hiddenPaths[tracked.Path()]
		return !hidden
	})
}

// Close releases the cache database when the runtime opened it.
func (runtime *Runtime) Close() error {
	if !runtime.ownsDatabase || runtime.database == nil {
		return nil
	}
	closeError := cache.CloseDatabase(runtime.database)
	runtime.database = nil
	return closeError
}

func (runtime *Runtime) resolveStore(backend cache.Backend) cache.Store {
	if store, available := runtime.storesByKind[backend]; available {
		return store
	}
	return cache.NewUnavailableStore(runtime.cacheError)
}
