package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v6/plumbing"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
)

const (
	branchReferencePrefixConstant       = "refs/heads/"
	shortCommitLengthConstant           = 7
	keyByteLengthConstant               = 16
	gitHubTreeURLTemplateConstant       = "https://github.com/%s/tree/%s"
	overrideFilePermissionsConstant     = os.FileMode(0o644)
	emptyHeadRefMessageConstant         = "head reference must not be empty"
	overrideNotPresentMessageConstant   = "override marker file is not present"
	fileSystemRequiredMessageConstant   = "repository filesystem must be provided"
	overrideWriteErrorTemplateConstant  = "unable to write override marker file %s: %w"
	overrideRemoveErrorTemplateConstant = "unable to delete override marker file %s: %w"
)

var (
	// ErrEmptyHeadRef indicates an override head reference was empty after sanitization.
	ErrEmptyHeadRef = errors.New(emptyHeadRefMessageConstant)
	// ErrOverrideNotPresent indicates a reset was requested while no override marker exists.
	ErrOverrideNotPresent = errors.New(overrideNotPresentMessageConstant)
	// ErrFileSystemRequired indicates a repository was constructed without a filesystem.
	ErrFileSystemRequired = errors.New(fileSystemRequiredMessageConstant)
)

// State describes the resolution progress of a repository head reference.
type State int

// Resolution states.
const (
	StateUnresolved State = iota
	StateBranch
	StateCommit
	StateUnresolvable
)

// String returns a readable state label.
func (state State) String() string {
	switch state {
	case StateBranch:
		return "branch"
	case StateCommit:
		return "commit"
	case StateUnresolvable:
		return "unresolvable"
	default:
		return "unresolved"
	}
}

// Source identifies where a resolved head reference came from.
type Source int

// Head reference sources.
const (
	SourceNone Source = iota
	SourceOverride
	SourceVCS
)

// String returns a readable source label.
func (source Source) String() string {
	switch source {
	case SourceOverride:
		return "override"
	case SourceVCS:
		return "vcs"
	default:
		return "none"
	}
}

// GitHubRepositoryResolver supplies the owner/name slug used to link a repository to GitHub.
type GitHubRepositoryResolver interface {
	ResolveGitHubRepository(repository *Repository) string
}

// Dependencies carries collaborators used by a Repository.
type Dependencies struct {
	FileSystem               shared.FileSystem
	GitHubRepositoryResolver GitHubRepositoryResolver
}

// Options configures presentation details of a Repository.
type Options struct {
	DisplayName string
}

// Repository resolves and memoizes the head reference of one working directory.
type Repository struct {
	path       string
	name       string
	key        string
	fileSystem shared.FileSystem
	resolver   GitHubRepositoryResolver

	mutex      sync.Mutex
	state      State
	source     Source
	rawHeadRef string
	primary    bool
}

// New constructs a Repository for the provided directory path.
func New(directoryPath string, dependencies Dependencies, options Options) (*Repository, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemRequired
	}

	normalizedPath, normalizeError := NormalizePath(dependencies.FileSystem, directoryPath)
	if normalizeError != nil {
		return nil, normalizeError
	}

	displayName := strings.TrimSpace(options.DisplayName)
	if len(displayName) == 0 {
		displayName = filepath.Base(filepath.Clean(normalizedPath))
	}

	return &Repository{
		path:       normalizedPath,
		name:       displayName,
		key:        ComputeKey(normalizedPath),
		fileSystem: dependencies.FileSystem,
		resolver:   dependencies.GitHubRepositoryResolver,
	}, nil
}

// ComputeKey derives the stable identifier for a normalized repository path.
func ComputeKey(normalizedPath string) string {
	digest := sha256.Sum256([]byte(normalizedPath))
	return hex.EncodeToString(digest[:keyByteLengthConstant])
}

// Path returns the normalized directory path with a trailing separator.
func (repository *Repository) Path() string {
	return repository.path
}

// Name returns the display name.
func (repository *Repository) Name() string {
	return repository.name
}

// Key returns the opaque identifier derived from the path.
func (repository *Repository) Key() string {
	return repository.key
}

// Depth returns the number of path segments in the repository path.
func (repository *Repository) Depth() int {
	return PathDepth(repository.path)
}

// OverrideFilePath returns the location of the override marker file.
func (repository *Repository) OverrideFilePath() string {
	return filepath.Join(repository.path, shared.OverrideMarkerFileNameConstant)
}

// IsPrimary reports whether the repository has been designated primary.
func (repository *Repository) IsPrimary() bool {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.primary
}

// MarkPrimary designates the repository as primary. It reports false when already designated.
func (repository *Repository) MarkPrimary() bool {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	if repository.primary {
		return false
	}
	repository.primary = true
	return true
}

// ResolveHeadRef recomputes the head reference from the override marker or the VCS head pointer.
func (repository *Repository) ResolveHeadRef() {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.resolveLocked()
}

// HeadRef returns the branch name, the short commit hash, or an empty string when unresolvable.
func (repository *Repository) HeadRef() string {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.ensureResolvedLocked()

	switch repository.state {
	case StateBranch:
		return repository.rawHeadRef
	case StateCommit:
		if len(repository.rawHeadRef) <= shortCommitLengthConstant {
			return repository.rawHeadRef
		}
		return repository.rawHeadRef[:shortCommitLengthConstant]
	default:
		return ""
	}
}

// IsBranch reports whether the head reference names a branch.
func (repository *Repository) IsBranch() bool {
	return repository.State() == StateBranch
}

// IsCommit reports whether the head reference is a detached commit.
func (repository *Repository) IsCommit() bool {
	return repository.State() == StateCommit
}

// State returns the resolution state, resolving on first access.
func (repository *Repository) State() State {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.ensureResolvedLocked()
	return repository.state
}

// Source returns where the head reference came from, resolving on first access.
func (repository *Repository) Source() Source {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.ensureResolvedLocked()
	return repository.source
}

// HasOverride reports whether the override marker file currently exists.
func (repository *Repository) HasOverride() bool {
	return HasOverrideMarker(repository.fileSystem, repository.path)
}

// GitHubURL links the head reference on GitHub when a repository slug is known.
func (repository *Repository) GitHubURL() string {
	if repository.resolver == nil {
		return ""
	}

	slug := SanitizeText(repository.resolver.ResolveGitHubRepository(repository))
	if len(slug) == 0 {
		return ""
	}

	headRef := SanitizeText(repository.HeadRef())
	if len(headRef) == 0 {
		return ""
	}

	return fmt.Sprintf(gitHubTreeURLTemplateConstant, slug, headRef)
}

// SetOverride writes the sanitized head reference to the override marker file and re-resolves.
func (repository *Repository) SetOverride(headRef string) error {
	sanitizedHeadRef := SanitizeText(headRef)
	if len(sanitizedHeadRef) == 0 {
		return ErrEmptyHeadRef
	}

	overridePath := repository.OverrideFilePath()
	if writeError := repository.fileSystem.WriteFile(overridePath, []byte(sanitizedHeadRef), overrideFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(overrideWriteErrorTemplateConstant, overridePath, writeError)
	}

	repository.ResolveHeadRef()
	return nil
}

// ResetOverride deletes the override marker file and re-resolves from VCS metadata.
func (repository *Repository) ResetOverride() error {
	if !repository.HasOverride() {
		return ErrOverrideNotPresent
	}

	overridePath := repository.OverrideFilePath()
	if removeError := repository.fileSystem.Remove(overridePath); removeError != nil {
		return fmt.Errorf(overrideRemoveErrorTemplateConstant, overridePath, removeError)
	}

	repository.ResolveHeadRef()
	return nil
}

func (repository *Repository) ensureResolvedLocked() {
	if repository.state == StateUnresolved {
		repository.resolveLocked()
	}
}

func (repository *Repository) resolveLocked() {
	if overrideHeadRef, found := repository.readOverride(); found {
		repository.state = StateBranch
		repository.source = SourceOverride
		repository.rawHeadRef = overrideHeadRef
		return
	}

	pointer, found := repository.readHeadPointer()
	if !found {
		repository.state = StateUnresolvable
		repository.source = SourceNone
		repository.rawHeadRef = ""
		return
	}

	repository.source = SourceVCS
	repository.state, repository.rawHeadRef = classifyHeadPointer(pointer)
}

func (repository *Repository) readOverride() (string, bool) {
	content, readError := repository.fileSystem.ReadFile(repository.OverrideFilePath())
	if readError != nil {
		return "", false
	}
	sanitized := SanitizeText(string(content))
	return sanitized, len(sanitized) > 0
}

func (repository *Repository) readHeadPointer() (string, bool) {
	metadataDirectory, found := MetadataDirectory(repository.fileSystem, repository.path)
	if !found {
		return "", false
	}
	content, readError := repository.fileSystem.ReadFile(filepath.Join(metadataDirectory, shared.GitHeadFileNameConstant))
	if readError != nil {
		return "", false
	}
	sanitized := SanitizeText(string(content))
	return sanitized, len(sanitized) > 0
}

func classifyHeadPointer(pointer string) (State, string) {
	reference := plumbing.NewReferenceFromStrings(plumbing.HEAD.String(), pointer)
	if reference.Type() != plumbing.SymbolicReference {
		return StateCommit, strings.TrimSpace(pointer)
	}

	target := reference.Target()
	if target.IsBranch() {
		return StateBranch, strings.TrimSpace(strings.TrimPrefix(target.String(), branchReferencePrefixConstant))
	}
	return StateBranch, strings.TrimSpace(target.Short())
}
