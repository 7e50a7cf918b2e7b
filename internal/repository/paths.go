package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
)

const (
	directoryPathRequiredMessageConstant      = "directory path must be provided"
	directoryPathResolveErrorTemplateConstant = "unable to resolve directory path %q: %w"
	gitDirectoryFilePrefixConstant            = "gitdir:"
)

// ErrDirectoryPathRequired indicates an empty directory path was supplied.
var ErrDirectoryPathRequired = errors.New(directoryPathRequiredMessageConstant)

// NormalizePath converts a directory path to its absolute, cleaned form with exactly one trailing separator.
func NormalizePath(fileSystem shared.FileSystem, directoryPath string) (string, error) {
	trimmedPath := strings.TrimSpace(directoryPath)
	if len(trimmedPath) == 0 {
		return "", ErrDirectoryPathRequired
	}

	absolutePath, absoluteError := fileSystem.Abs(trimmedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(directoryPathResolveErrorTemplateConstant, directoryPath, absoluteError)
	}

	return withTrailingSeparator(filepath.Clean(absolutePath)), nil
}

func withTrailingSeparator(cleanedPath string) string {
	if strings.HasSuffix(cleanedPath, string(os.PathSeparator)) {
		return cleanedPath
	}
	return cleanedPath + string(os.PathSeparator)
}

// PathDepth counts the non-empty path segments of a directory path.
func PathDepth(directoryPath string) int {
	trimmed := strings.Trim(filepath.ToSlash(filepath.Clean(directoryPath)), "/")
	if len(trimmed) == 0 {
		return 0
	}
	if volume := filepath.VolumeName(directoryPath); len(volume) > 0 {
		trimmed = strings.Trim(strings.TrimPrefix(trimmed, filepath.ToSlash(volume)), "/")
		if len(trimmed) == 0 {
			return 0
		}
	}
	return len(strings.Split(trimmed, "/"))
}

// MetadataDirectory locates the VCS metadata directory for a working directory.
//
// A `.git` directory is returned as is. A `.git` file holding a `gitdir:` line
// (linked worktrees, submodules) is followed; relative targets resolve against
// the working directory.
func MetadataDirectory(fileSystem shared.FileSystem, directoryPath string) (string, bool) {
	metadataPath := filepath.Join(directoryPath, shared.GitMetadataDirectoryNameConstant)
	metadataInfo, statError := fileSystem.Stat(metadataPath)
	if statError != nil {
		return "", false
	}
	if metadataInfo.IsDir() {
		return metadataPath, true
	}

	content, readError := fileSystem.ReadFile(metadataPath)
	if readError != nil {
		return "", false
	}

	firstLine, _, _ := strings.Cut(string(content), "\n")
	trimmedLine := strings.TrimSpace(firstLine)
	if !strings.HasPrefix(trimmedLine, gitDirectoryFilePrefixConstant) {
		return "", false
	}

	target := strings.TrimSpace(strings.TrimPrefix(trimmedLine, gitDirectoryFilePrefixConstant))
	if len(target) == 0 {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(directoryPath, target)
	}

	targetInfo, targetError := fileSystem.Stat(target)
	if targetError != nil || !targetInfo.IsDir() {
		return "", false
	}
	return filepath.Clean(target), true
}

// HasHeadPointer reports whether the directory carries a readable VCS head pointer file.
func HasHeadPointer(fileSystem shared.FileSystem, directoryPath string) bool {
	metadataDirectory, found := MetadataDirectory(fileSystem, directoryPath)
	if !found {
		return false
	}
	headInfo, statError := fileSystem.Stat(filepath.Join(metadataDirectory, shared.GitHeadFileNameConstant))
	return statError == nil && !headInfo.IsDir()
}

// HasOverrideMarker reports whether the directory carries an override marker file.
func HasOverrideMarker(fileSystem shared.FileSystem, directoryPath string) bool {
	markerInfo, statError := fileSystem.Stat(filepath.Join(directoryPath, shared.OverrideMarkerFileNameConstant))
	return statError == nil && !markerInfo.IsDir()
}

// Qualifies reports whether an existing directory holds VCS metadata or an override marker.
func Qualifies(fileSystem shared.FileSystem, directoryPath string) bool {
	directoryInfo, statError := fileSystem.Stat(directoryPath)
	if statError != nil || !directoryInfo.IsDir() {
		return false
	}
	return HasOverrideMarker(fileSystem, directoryPath) || HasHeadPointer(fileSystem, directoryPath)
}
