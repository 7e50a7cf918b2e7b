package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/temirov/whatgitbranch/internal/locator"
	"github.com/temirov/whatgitbranch/internal/repos/discovery"
	pathutils "github.com/temirov/whatgitbranch/internal/utils/path"
)

const (
	// DefaultCacheTimeToLive bounds how long the expiring backend keeps a scan result.
	DefaultCacheTimeToLive = 10 * time.Minute

	defaultRootConstant             = "."
	defaultCacheDirectoryConstant   = "~/.cache/what-git-branch"
	defaultHeartbeatAddressConstant = "127.0.0.1:8787"

	rootKeyConstant                    = "root"
	includeDirectoriesKeyConstant      = "include_directories"
	directoriesKeyConstant             = "directories"
	primaryDirectoryKeyConstant        = "primary_directory"
	primaryGitHubRepositoryKeyConstant = "primary_github_repository"
	gitHubRepositoriesKeyConstant      = "github_repositories"
	displayNamesKeyConstant            = "display_names"
	hiddenDirectoriesKeyConstant       = "hidden_directories"
	inferGitHubRepositoryKeyConstant   = "infer_github_repository"
	scanWhenKeyConstant                = "scan.when"
	scanMaximumDepthKeyConstant        = "scan.max_depth"
	scanExcludeKeyConstant             = "scan.exclude"
	scanFollowSymlinksKeyConstant      = "scan.follow_symlinks"
	scanLeaseTimeToLiveKeyConstant     = "scan.lease_ttl"
	cacheDirectoryKeyConstant          = "cache.directory"
	cacheInMemoryKeyConstant           = "cache.in_memory"
	cacheTimeToLiveKeyConstant         = "cache.ttl"
	heartbeatAddressKeyConstant        = "heartbeat.address"

	gitHubSlugValidationTagConstant   = "github_slug"
	scanWhenValidationTagConstant     = "scan_when"
	invalidConfigurationMessage       = "invalid configuration"
	invalidFieldTemplateConstant      = "%w: %s failed %q validation"
	validatorRegistrationTemplate     = "unable to register configuration validation %s: %w"
	configurationKeySeparatorConstant = "."
	wrappedErrorTemplateConstant      = "%w: %w"
)

// ErrInvalidConfiguration wraps validation failures of repository configuration.
var ErrInvalidConfiguration = errors.New(invalidConfigurationMessage)

var gitHubSlugPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// Configuration describes how repositories are found, cached, linked, and served.
type Configuration struct {
	Root                    string                  `mapstructure:"root"`
	IncludeDirectories      []string                `mapstructure:"include_directories"`
	Directories             []string                `mapstructure:"directories"`
	PrimaryDirectory        string                  `mapstructure:"primary_directory"`
	PrimaryGitHubRepository string                  `mapstructure:"primary_github_repository" validate:"omitempty,github_slug"`
	GitHubRepositories      []GitHubRepositoryEntry `mapstructure:"github_repositories" validate:"dive"`
	DisplayNames            []DisplayNameEntry      `mapstructure:"display_names" validate:"dive"`
	HiddenDirectories       []string                `mapstructure:"hidden_directories"`
	InferGitHubRepository   bool                    `mapstructure:"infer_github_repository"`
	Scan                    ScanConfiguration       `mapstructure:"scan"`
	Cache                   CacheConfiguration      `mapstructure:"cache"`
	Heartbeat               HeartbeatConfiguration  `mapstructure:"heartbeat"`
}

// GitHubRepositoryEntry links one repository directory to an owner/name slug.
type GitHubRepositoryEntry struct {
	Path       string `mapstructure:"path" validate:"required"`
	Repository string `mapstructure:"repository" validate:"required,github_slug"`
}

// DisplayNameEntry overrides the display name of one repository directory.
type DisplayNameEntry struct {
	Path string `mapstructure:"path" validate:"required"`
	Name string `mapstructure:"name" validate:"required"`
}

// ScanConfiguration controls when and how deep the filesystem is walked.
type ScanConfiguration struct {
	When            string        `mapstructure:"when" validate:"scan_when"`
	MaximumDepth    int           `mapstructure:"max_depth" validate:"gte=0"`
	Exclude         []string      `mapstructure:"exclude"`
	FollowSymlinks  bool          `mapstructure:"follow_symlinks"`
	LeaseTimeToLive time.Duration `mapstructure:"lease_ttl" validate:"gte=0"`
}

// CacheConfiguration locates the directory cache.
type CacheConfiguration struct {
	Directory  string        `mapstructure:"directory" validate:"required_unless=InMemory true"`
	InMemory   bool          `mapstructure:"in_memory"`
	TimeToLive time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// HeartbeatConfiguration configures the polling endpoint.
type HeartbeatConfiguration struct {
	Address string `mapstructure:"address" validate:"omitempty,hostname_port"`
}

// DefaultConfiguration returns baseline repository configuration.
func DefaultConfiguration() Configuration {
	discoveryDefaults := discovery.DefaultOptions()
	return Configuration{
		Root:               defaultRootConstant,
		IncludeDirectories: []string{},
		Directories:        []string{},
		HiddenDirectories:  []string{},
		Scan: ScanConfiguration{
			When:            string(locator.DefaultScanWhen),
			MaximumDepth:    discoveryDefaults.MaximumDepth,
			Exclude:         append([]string{}, discoveryDefaults.ExcludedDirectoryNames...),
			LeaseTimeToLive: locator.DefaultLeaseTimeToLive,
		},
		Cache: CacheConfiguration{
			Directory:  defaultCacheDirectoryConstant,
			TimeToLive: DefaultCacheTimeToLive,
		},
		Heartbeat: HeartbeatConfiguration{Address: defaultHeartbeatAddressConstant},
	}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	values := map[string]any{
		rootKeyConstant:                    defaults.Root,
		includeDirectoriesKeyConstant:      defaults.IncludeDirectories,
		directoriesKeyConstant:             defaults.Directories,
		primaryDirectoryKeyConstant:        defaults.PrimaryDirectory,
		primaryGitHubRepositoryKeyConstant: defaults.PrimaryGitHubRepository,
		gitHubRepositoriesKeyConstant:      []map[string]any{},
		displayNamesKeyConstant:            []map[string]any{},
		hiddenDirectoriesKeyConstant:       defaults.HiddenDirectories,
		inferGitHubRepositoryKeyConstant:   defaults.InferGitHubRepository,
		scanWhenKeyConstant:                defaults.Scan.When,
		scanMaximumDepthKeyConstant:        defaults.Scan.MaximumDepth,
		scanExcludeKeyConstant:             defaults.Scan.Exclude,
		scanFollowSymlinksKeyConstant:      defaults.Scan.FollowSymlinks,
		scanLeaseTimeToLiveKeyConstant:     defaults.Scan.LeaseTimeToLive,
		cacheDirectoryKeyConstant:          defaults.Cache.Directory,
		cacheInMemoryKeyConstant:           defaults.Cache.InMemory,
		cacheTimeToLiveKeyConstant:         defaults.Cache.TimeToLive,
		heartbeatAddressKeyConstant:        defaults.Heartbeat.Address,
	}
	if len(rootKey) == 0 {
		return values
	}
	return lo.MapKeys(values, func(_ any, key string) string {
		return rootKey + configurationKeySeparatorConstant + key
	})
}

// Sanitize trims values and expands home-relative paths.
func (configuration Configuration) Sanitize(expander *pathutils.HomeExpander) Configuration {
	if expander == nil {
		expander = pathutils.NewHomeExpander()
	}
	sanitized := configuration

	sanitized.Root = expander.Expand(strings.TrimSpace(configuration.Root))
	sanitized.IncludeDirectories = expander.ExpandAll(trimEntries(configuration.IncludeDirectories))
	sanitized.Directories = expander.ExpandAll(trimEntries(configuration.Directories))
	sanitized.PrimaryDirectory = expander.Expand(strings.TrimSpace(configuration.PrimaryDirectory))
	sanitized.PrimaryGitHubRepository = strings.TrimSpace(configuration.PrimaryGitHubRepository)
	sanitized.GitHubRepositories = lo.Map(configuration.GitHubRepositories, func(entry GitHubRepositoryEntry, _ int) GitHubRepositoryEntry {
		return GitHubRepositoryEntry{Path: expander.Expand(strings.TrimSpace(entry.Path)), Repository: strings.TrimSpace(entry.Repository)}
	})
	sanitized.DisplayNames = lo.Map(configuration.DisplayNames, func(entry DisplayNameEntry, _ int) DisplayNameEntry {
		return DisplayNameEntry{Path: expander.Expand(strings.TrimSpace(entry.Path)), Name: strings.TrimSpace(entry.Name)}
	})
	sanitized.HiddenDirectories = expander.ExpandAll(trimEntries(configuration.HiddenDirectories))
	sanitized.Scan.When = strings.ToLower(strings.TrimSpace(configuration.Scan.When))
	sanitized.Scan.Exclude = trimEntries(configuration.Scan.Exclude)
	sanitized.Cache.Directory = expander.Expand(strings.TrimSpace(configuration.Cache.Directory))
	sanitized.Heartbeat.Address = strings.TrimSpace(configuration.Heartbeat.Address)

	return sanitized
}

// Validate checks the configuration against its declared constraints.
func (configuration Configuration) Validate() error {
	configurationValidator, creationError := newConfigurationValidator()
	if creationError != nil {
		return creationError
	}

	validationError := configurationValidator.Struct(configuration)
	if validationError == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(validationError, &fieldErrors) && len(fieldErrors) > 0 {
		firstError := fieldErrors[0]
		return fmt.Errorf(invalidFieldTemplateConstant, ErrInvalidConfiguration, firstError.Namespace(), firstError.Tag())
	}
	return fmt.Errorf(wrappedErrorTemplateConstant, ErrInvalidConfiguration, validationError)
}

// ScanWhen returns the parsed scanning policy.
func (configuration Configuration) ScanWhen() locator.ScanWhen {
	setting, parseError := locator.ParseScanWhen(configuration.Scan.When)
	if parseError != nil {
		return locator.DefaultScanWhen
	}
	return setting
}

// DiscoveryOptions returns the scanner options.
func (configuration Configuration) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		MaximumDepth:           configuration.Scan.MaximumDepth,
		ExcludedDirectoryNames: append([]string{}, configuration.Scan.Exclude...),
		FollowSymlinks:         configuration.Scan.FollowSymlinks,
	}
}

// GitHubRepositoryMap returns configured slugs keyed by directory path.
func (configuration Configuration) GitHubRepositoryMap() map[string]string {
	return lo.SliceToMap(configuration.GitHubRepositories, func(entry GitHubRepositoryEntry) (string, string) {
		return entry.Path, entry.Repository
	})
}

// DisplayNameMap returns configured display names keyed by directory path.
func (configuration Configuration) DisplayNameMap() map[string]string {
	return lo.SliceToMap(configuration.DisplayNames, func(entry DisplayNameEntry) (string, string) {
		return entry.Path, entry.Name
	})
}

func newConfigurationValidator() (*validator.Validate, error) {
	configurationValidator := validator.New(validator.WithRequiredStructEnabled())
	registrations := map[string]validator.Func{
		gitHubSlugValidationTagConstant: func(field validator.FieldLevel) bool {
			return gitHubSlugPattern.MatchString(field.Field().String())
		},
		scanWhenValidationTagConstant: func(field validator.FieldLevel) bool {
			_, parseError := locator.ParseScanWhen(field.Field().String())
			return parseError == nil
		},
	}
	for tag, validation := range registrations {
		if registrationError := configurationValidator.RegisterValidation(tag, validation); registrationError != nil {
			return nil, fmt.Errorf(validatorRegistrationTemplate, tag, registrationError)
		}
	}
	return configurationValidator, nil
}

func trimEntries(entries []string) []string {
	return lo.Compact(lo.Map(entries, func(entry string, _ int) string {
		return strings.TrimSpace(entry)
	}))
}
