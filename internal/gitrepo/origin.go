package gitrepo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	// GitHubHostConstant is the host recognized for slug inference.
	GitHubHostConstant = "github.com"

	originRemoteNameConstant           = "origin"
	remoteSectionTemplateConstant      = `remote "%s"`
	remoteURLKeyConstant               = "url"
	commonDirectoryFileNameConstant    = "commondir"
	metadataMissingMessageConstant     = "no VCS metadata directory"
	remoteMissingMessageConstant       = "remote is not configured"
	remoteMissingTemplateConstant      = "%w: %s"
	configurationReadTemplateConstant  = "unable to read VCS configuration %s: %w"
	configurationParseTemplateConstant = "unable to parse VCS configuration %s: %w"
	hostMismatchTemplateConstant       = "remote host %s is not %s"
)

var (
	// ErrMetadataMissing indicates the directory has no VCS metadata directory.
	ErrMetadataMissing = errors.New(metadataMissingMessageConstant)
	// ErrRemoteMissing indicates the requested remote is not configured.
	ErrRemoteMissing = errors.New(remoteMissingMessageConstant)
)

// RemoteReader reads remote definitions from `.git/config`.
type RemoteReader struct {
	fileSystem shared.FileSystem
}

// NewRemoteReader constructs a RemoteReader over the provided filesystem.
func NewRemoteReader(fileSystem shared.FileSystem) *RemoteReader {
	return &RemoteReader{fileSystem: fileSystem}
}

// RemoteURL returns the configured URL of the named remote.
func (reader *RemoteReader) RemoteURL(directoryPath string, remoteName string) (string, error) {
	configurationPath, pathError := reader.configurationPath(directoryPath)
	if pathError != nil {
		return "", pathError
	}

	content, readError := reader.fileSystem.ReadFile(configurationPath)
	if readError != nil {
		return "", fmt.Errorf(configurationReadTemplateConstant, configurationPath, readError)
	}

	configuration, parseError := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, content)
	if parseError != nil {
		return "", fmt.Errorf(configurationParseTemplateConstant, configurationPath, parseError)
	}

	sectionName := fmt.Sprintf(remoteSectionTemplateConstant, remoteName)
	if !configuration.HasSection(sectionName) {
		return "", fmt.Errorf(remoteMissingTemplateConstant, ErrRemoteMissing, remoteName)
	}
	remoteURL := strings.TrimSpace(configuration.Section(sectionName).Key(remoteURLKeyConstant).String())
	if len(remoteURL) == 0 {
		return "", fmt.Errorf(remoteMissingTemplateConstant, ErrRemoteMissing, remoteName)
	}
	return remoteURL, nil
}

// GitHubRepository infers the owner/name slug from the origin remote when it points at GitHub.
func (reader *RemoteReader) GitHubRepository(directoryPath string) (string, error) {
	remoteURL, remoteError := reader.RemoteURL(directoryPath, originRemoteNameConstant)
	if remoteError != nil {
		return "", remoteError
	}

	parsedRemote, parseError := ParseRemoteURL(remoteURL)
	if parseError != nil {
		return "", parseError
	}
	if !strings.EqualFold(parsedRemote.Host, GitHubHostConstant) {
		return "", RemoteURLParseError{Input: remoteURL, Message: fmt.Sprintf(hostMismatchTemplateConstant, parsedRemote.Host, GitHubHostConstant)}
	}
	return parsedRemote.Slug(), nil
}

// configurationPath locates the config file, following the commondir pointer of linked worktrees.
func (reader *RemoteReader) configurationPath(directoryPath string) (string, error) {
	metadataDirectory, found := repository.MetadataDirectory(reader.fileSystem, directoryPath)
	if !found {
		return "", ErrMetadataMissing
	}

	commonDirectoryContent, readError := reader.fileSystem.ReadFile(filepath.Join(metadataDirectory, commonDirectoryFileNameConstant))
	if readError == nil {
		commonDirectory := strings.TrimSpace(string(commonDirectoryContent))
		if len(commonDirectory) > 0 {
			if !filepath.IsAbs(commonDirectory) {
				commonDirectory = filepath.Join(metadataDirectory, commonDirectory)
			}
			return filepath.Join(commonDirectory, shared.GitConfigFileNameConstant), nil
		}
	}

	return filepath.Join(metadataDirectory, shared.GitConfigFileNameConstant), nil
}
