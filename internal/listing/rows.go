package listing

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	relativePathPrefixConstant = "."
	parentDirectoryConstant    = ".."
)

// Row is one repository as presented to operators.
type Row struct {
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path" yaml:"path"`
	HeadRef   string `json:"head_ref" yaml:"head_ref"`
	GitHubURL string `json:"github_url" yaml:"github_url"`
	IsPrimary bool   `json:"is_primary" yaml:"is_primary"`
}

// BuildRows converts repositories into rows, shortening paths beneath root.
func BuildRows(repositories []*repository.Repository, root string) []Row {
	return lo.Map(repositories, func(tracked *repository.Repository, _ int) Row {
		return Row{
			Key:       tracked.Key(),
			Name:      tracked.Name(),
			Path:      DisplayPath(tracked.Path(), root),
			HeadRef:   tracked.HeadRef(),
			GitHubURL: tracked.GitHubURL(),
			IsPrimary: tracked.IsPrimary(),
		}
	})
}

// DisplayPath renders a repository path relative to root as ./relative/ when it lies beneath root.
func DisplayPath(directoryPath string, root string) string {
	if len(root) == 0 {
		return directoryPath
	}
	relativePath, relativeError := filepath.Rel(root, directoryPath)
	if relativeError != nil || relativePath == parentDirectoryConstant || strings.HasPrefix(relativePath, parentDirectoryConstant+string(os.PathSeparator)) {
		return directoryPath
	}
	separator := string(os.PathSeparator)
	if relativePath == relativePathPrefixConstant {
		return relativePathPrefixConstant + separator
	}
	return relativePathPrefixConstant + separator + relativePath + separator
}
