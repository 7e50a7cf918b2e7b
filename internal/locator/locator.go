package locator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/cache"
	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	// DefaultLeaseTimeToLive bounds how long an automatic scan holds the scan lease.
	DefaultLeaseTimeToLive = 30 * time.Second

	scanLeaseNameTemplateConstant     = "scan:%s"
	defaultCacheKeyConstant           = "default"
	fileSystemRequiredMessageConstant = "locator filesystem must be provided"
	discovererRequiredMessageConstant = "locator repository discoverer must be provided"
	scanNotPermittedMessageConstant   = "scanning is not permitted for this invocation"
	cacheWriteMessageConstant         = "failed to write directories cache"
	scanFailedMessageConstant         = "directory scan failed"
	wrappedErrorTemplateConstant      = "%w: %w"
	rootResolveErrorTemplateConstant  = "unable to resolve root %s: %w"

	overrideEntryRejectedLogMessage  = "Ignoring configured directory without repository metadata"
	cacheReadFailedLogMessage        = "Directories cache unavailable; continuing without it"
	scanFailedLogMessage             = "Directory scan failed"
	scanLeaseHeldLogMessage          = "Another process holds the scan lease; skipping scan"
	scanLeaseFailedLogMessage        = "Scan lease unavailable; scanning without it"
	scanLeaseReleaseFailedLogMessage = "Failed to release scan lease"
	directoriesResolvedLogMessage    = "Resolved candidate directories"

	directoryLogFieldConstant  = "directory"
	sourceLogFieldConstant     = "source"
	countLogFieldConstant      = "count"
	invocationLogFieldConstant = "invocation"
	backendLogFieldConstant    = "backend"

	sourceOverrideConstant = "override"
	sourceCacheConstant    = "cache"
	sourceScanConstant     = "scan"
	sourceNoneConstant     = "none"
)

var (
	// ErrFileSystemRequired indicates the locator was constructed without a filesystem.
	ErrFileSystemRequired = errors.New(fileSystemRequiredMessageConstant)
	// ErrDiscovererRequired indicates the locator was constructed without a discoverer.
	ErrDiscovererRequired = errors.New(discovererRequiredMessageConstant)
	// ErrScanNotPermitted indicates scanning is forbidden by policy for this invocation.
	ErrScanNotPermitted = errors.New(scanNotPermittedMessageConstant)
	// ErrCacheWrite wraps failures persisting a scan result.
	ErrCacheWrite = errors.New(cacheWriteMessageConstant)
	// ErrScanFailed wraps failures walking the root.
	ErrScanFailed = errors.New(scanFailedMessageConstant)
)

// ScanLease coordinates automatic scans across processes sharing the cache.
type ScanLease interface {
	TryAcquire(name string, timeToLive time.Duration) (bool, error)
	Release(name string) error
}

// Observer receives scan and cache lookup outcomes.
type Observer interface {
	ObserveCacheLookup(backend cache.Backend, hit bool)
	ObserveScan(invocation string, duration time.Duration, discovered int, scanError error)
}

// StoreResolver returns the cache store serving a backend.
type StoreResolver func(backend cache.Backend) cache.Store

// Options configures one Locator.
type Options struct {
	Root               string
	IncludeDirectories []string
	Directories        []string
	ScanWhen           ScanWhen
	Invocation         Invocation
	LeaseTimeToLive    time.Duration
}

// Dependencies carries the Locator collaborators.
type Dependencies struct {
	FileSystem    shared.FileSystem
	Discoverer    shared.RepositoryDiscoverer
	StoreResolver StoreResolver
	ScanLease     ScanLease
	Observer      Observer
	Logger        *zap.Logger
}

// Locator discovers candidate repository directories from an override list, the cache, or a scan.
type Locator struct {
	fileSystem shared.FileSystem
	discoverer shared.RepositoryDiscoverer
	store      cache.Store
	lease      ScanLease
	observer   Observer
	logger     *zap.Logger

	root               string
	includeDirectories []string
	overrides          []string
	setting            ScanWhen
	backend            cache.Backend
	invocation         Invocation
	leaseTimeToLive    time.Duration
	cacheKey           string

	canScanOnce sync.Once
	canScan     bool
}

// New constructs a Locator.
func New(options Options, dependencies Dependencies) (*Locator, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemRequired
	}
	if dependencies.Discoverer == nil {
		return nil, ErrDiscovererRequired
	}

	setting := options.ScanWhen
	if len(setting) == 0 {
		setting = DefaultScanWhen
	}
	backend := BackendFor(setting)

	var store cache.Store
	if dependencies.StoreResolver != nil {
		store = dependencies.StoreResolver(backend)
	}
	if store == nil {
		store = cache.NewUnavailableStore(nil)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	locator := &Locator{
		fileSystem:         dependencies.FileSystem,
		discoverer:         dependencies.Discoverer,
		store:              store,
		lease:              dependencies.ScanLease,
		observer:           dependencies.Observer,
		logger:             logger,
		includeDirectories: lo.Compact(options.IncludeDirectories),
		overrides:          lo.Compact(lo.Map(options.Directories, trimEntry)),
		setting:            setting,
		backend:            backend,
		invocation:         options.Invocation,
		leaseTimeToLive:    options.LeaseTimeToLive,
		cacheKey:           defaultCacheKeyConstant,
	}
	if locator.leaseTimeToLive <= 0 {
		locator.leaseTimeToLive = DefaultLeaseTimeToLive
	}

	if trimmedRoot := strings.TrimSpace(options.Root); len(trimmedRoot) > 0 {
		normalizedRoot, normalizeError := repository.NormalizePath(dependencies.FileSystem, trimmedRoot)
		if normalizeError != nil {
			return nil, fmt.Errorf(rootResolveErrorTemplateConstant, trimmedRoot, normalizeError)
		}
		locator.root = normalizedRoot
		locator.cacheKey = repository.ComputeKey(normalizedRoot)
	}

	return locator, nil
}

func trimEntry(entry string, _ int) string {
	return strings.TrimSpace(entry)
}

// Root returns the normalized scan root, empty when none is configured.
func (locator *Locator) Root() string {
	return locator.root
}

// CacheBackend returns the backend selected by the scanning setting.
func (locator *Locator) CacheBackend() cache.Backend {
	return locator.backend
}

// Setting returns the scanning policy in effect.
func (locator *Locator) Setting() ScanWhen {
	return locator.setting
}

// CanScan reports whether this Locator may walk the filesystem. The answer is computed once.
func (locator *Locator) CanScan() bool {
	locator.canScanOnce.Do(func() {
		if len(locator.overrides) > 0 {
			locator.canScan = false
			return
		}
		activeCacheEmpty := false
		if locator.setting == ScanWhenManual && locator.invocation != InvocationMaintenance {
			cached, _ := locator.store.Get(context.Background(), locator.cacheKey)
			activeCacheEmpty = len(cached) == 0
		}
		locator.canScan = PermitsScan(locator.setting, locator.invocation, activeCacheEmpty)
	})
	return locator.canScan
}

// Directories returns candidate directories: the override list, else the cache, else a permitted scan,
// unioned with the qualifying root and include directories. The error reports cache write failures only;
// the directory list is returned regardless.
func (locator *Locator) Directories(executionContext context.Context) ([]string, error) {
	var directories []string
	var resultError error
	source := sourceNoneConstant

	switch {
	case len(locator.overrides) > 0:
		directories = locator.qualifying(locator.overrides, true)
		source = sourceOverrideConstant
	default:
		if cached := locator.readCache(executionContext); len(cached) > 0 {
			directories = cached
			source = sourceCacheConstant
		} else if locator.CanScan() {
			directories, resultError = locator.automaticScan(executionContext)
			source = sourceScanConstant
		}
	}

	mustInclude := locator.qualifying(append([]string{locator.root}, locator.includeDirectories...), false)
	combined := lo.Uniq(append(append([]string{}, directories...), mustInclude...))

	locator.logger.Debug(
		directoriesResolvedLogMessage,
		zap.String(sourceLogFieldConstant, source),
		zap.Int(countLogFieldConstant, len(combined)),
		zap.String(invocationLogFieldConstant, locator.invocation.String()),
	)
	return combined, resultError
}

// Scan walks the root regardless of the cache and stores the result.
func (locator *Locator) Scan(executionContext context.Context) ([]string, error) {
	if !locator.CanScan() {
		return nil, ErrScanNotPermitted
	}
	directories, scanError := locator.walk(executionContext)
	if scanError != nil {
		return nil, fmt.Errorf(wrappedErrorTemplateConstant, ErrScanFailed, scanError)
	}
	return directories, locator.writeCache(executionContext, directories)
}

// InvalidateCache deletes the active backend's entry.
func (locator *Locator) InvalidateCache(executionContext context.Context) error {
	return locator.store.Delete(executionContext, locator.cacheKey)
}

func (locator *Locator) automaticScan(executionContext context.Context) ([]string, error) {
	if locator.lease != nil && locator.invocation != InvocationMaintenance {
		leaseName := fmt.Sprintf(scanLeaseNameTemplateConstant, locator.cacheKey)
		acquired, leaseError := locator.lease.TryAcquire(leaseName, locator.leaseTimeToLive)
		switch {
		case leaseError != nil:
			locator.logger.Debug(scanLeaseFailedLogMessage, zap.Error(leaseError))
		case !acquired:
			locator.logger.Info(scanLeaseHeldLogMessage)
			return nil, nil
		default:
			defer func() {
				if releaseError := locator.lease.Release(leaseName); releaseError != nil {
					locator.logger.Debug(scanLeaseReleaseFailedLogMessage, zap.Error(releaseError))
				}
			}()
		}
	}

	directories, scanError := locator.walk(executionContext)
	if scanError != nil {
		locator.logger.Warn(scanFailedLogMessage, zap.String(directoryLogFieldConstant, locator.root), zap.Error(scanError))
		return nil, nil
	}
	return directories, locator.writeCache(executionContext, directories)
}

func (locator *Locator) walk(executionContext context.Context) ([]string, error) {
	startedAt := time.Now()
	discovered, discoveryError := locator.discoverer.DiscoverRepositories(executionContext, locator.root)

	var directories []string
	if discoveryError == nil {
		directories = locator.normalizeAll(discovered)
	}
	if locator.observer != nil {
		locator.observer.ObserveScan(locator.invocation.String(), time.Since(startedAt), len(directories), discoveryError)
	}
	if discoveryError != nil {
		return nil, discoveryError
	}
	return directories, nil
}

func (locator *Locator) readCache(executionContext context.Context) []string {
	cached, readError := locator.store.Get(executionContext, locator.cacheKey)
	if readError != nil && !errors.Is(readError, cache.ErrEntryNotFound) {
		locator.logger.Debug(cacheReadFailedLogMessage, zap.String(backendLogFieldConstant, locator.backend.String()), zap.Error(readError))
	}
	normalized := locator.normalizeAll(cached)
	if locator.observer != nil {
		locator.observer.ObserveCacheLookup(locator.backend, len(normalized) > 0)
	}
	return normalized
}

func (locator *Locator) writeCache(executionContext context.Context, directories []string) error {
	if writeError := locator.store.Set(executionContext, locator.cacheKey, directories); writeError != nil {
		return fmt.Errorf(wrappedErrorTemplateConstant, ErrCacheWrite, writeError)
	}
	return nil
}

func (locator *Locator) normalizeAll(directories []string) []string {
	normalized := make([]string, 0, len(directories))
	for _, directory := range directories {
		normalizedPath, normalizeError := repository.NormalizePath(locator.fileSystem, directory)
		if normalizeError != nil {
			continue
		}
		normalized = append(normalized, normalizedPath)
	}
	normalized = lo.Uniq(normalized)
	sort.Strings(normalized)
	return normalized
}

// qualifying keeps existing directories that hold VCS metadata or an override marker, preserving order.
func (locator *Locator) qualifying(candidates []string, logRejections bool) []string {
	accepted := make([]string, 0, len(candidates))
	for _, candidate := range lo.Compact(candidates) {
		normalizedPath, normalizeError := repository.NormalizePath(locator.fileSystem, candidate)
		if normalizeError != nil || !repository.Qualifies(locator.fileSystem, normalizedPath) {
			if logRejections {
				locator.logger.Warn(overrideEntryRejectedLogMessage, zap.String(directoryLogFieldConstant, candidate))
			}
			continue
		}
		accepted = append(accepted, normalizedPath)
	}
	return lo.Uniq(accepted)
}
