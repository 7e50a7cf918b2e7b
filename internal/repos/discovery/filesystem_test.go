package discovery_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/repos/discovery"
	"github.com/temirov/whatgitbranch/internal/repos/filesystem"
)

const (
	developerDirectoryName             = "Dev"
	engineeringGroupDirectoryName      = "Group1"
	applicationRepositoryDirectoryName = "Repo1"
	serviceRepositoryDirectoryName     = "Repo2"
	toolsRepositoryDirectoryName       = "Repo3"
	gitMetadataDirectoryName           = ".git"
	gitHeadFileName                    = "HEAD"
	overrideMarkerFileName             = ".what-git-branch"
	dependencyDirectoryName            = "node_modules"
	applicationRootDirectoryName       = "app"
	pluginsDirectoryName               = "plugins"
	pluginDirectoryName                = "foo"
	mainBranchPointer                  = "ref: refs/heads/main\n"
	repositoryDirectoryPermissions     = 0o755
	repositoryFilePermissions          = 0o644
)

type repositoryDefinition struct {
	directorySegments []string
	markerOnly        bool
}

func (definition repositoryDefinition) repositoryPath(rootDirectory string) string {
	segments := append([]string{rootDirectory}, definition.directorySegments...)
	return filepath.Join(segments...) + string(os.PathSeparator)
}

func (definition repositoryDefinition) create(testFramework *testing.T, rootDirectory string) {
	testFramework.Helper()
	repositoryPath := filepath.Join(append([]string{rootDirectory}, definition.directorySegments...)...)
	if definition.markerOnly {
		require.NoError(testFramework, os.MkdirAll(repositoryPath, repositoryDirectoryPermissions))
		require.NoError(testFramework, os.WriteFile(filepath.Join(repositoryPath, overrideMarkerFileName), []byte("release"), repositoryFilePermissions))
		return
	}
	gitMetadataDirectoryPath := filepath.Join(repositoryPath, gitMetadataDirectoryName)
	require.NoError(testFramework, os.MkdirAll(gitMetadataDirectoryPath, repositoryDirectoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(gitMetadataDirectoryPath, gitHeadFileName), []byte(mainBranchPointer), repositoryFilePermissions))
}

type filesystemDiscoveryTestScenario struct {
	title                 string
	options               discovery.Options
	repositoryDefinitions []repositoryDefinition
	expectedDefinitions   []repositoryDefinition
}

func (scenario filesystemDiscoveryTestScenario) execute(testFramework *testing.T) {
	testFramework.Helper()

	temporaryRootDirectory := testFramework.TempDir()
	for _, definition := range scenario.repositoryDefinitions {
		definition.create(testFramework, temporaryRootDirectory)
	}

	repositoryDiscoverer := discovery.NewFilesystemRepositoryDiscoverer(filesystem.OSFileSystem{}, scenario.options, nil)
	discoveredRepositories, discoveryError := repositoryDiscoverer.DiscoverRepositories(context.Background(), temporaryRootDirectory)
	require.NoError(testFramework, discoveryError)

	expectedRepositories := make([]string, 0, len(scenario.expectedDefinitions))
	for _, definition := range scenario.expectedDefinitions {
		expectedRepositories = append(expectedRepositories, definition.repositoryPath(temporaryRootDirectory))
	}
	sort.Strings(expectedRepositories)
	require.Equal(testFramework, expectedRepositories, discoveredRepositories)
}

func TestFilesystemRepositoryDiscovererDiscoversNestedLayouts(testFramework *testing.T) {
	applicationRepository := repositoryDefinition{directorySegments: []string{developerDirectoryName, engineeringGroupDirectoryName, applicationRepositoryDirectoryName}}
	serviceRepository := repositoryDefinition{directorySegments: []string{developerDirectoryName, engineeringGroupDirectoryName, serviceRepositoryDirectoryName}}
	toolsRepository := repositoryDefinition{directorySegments: []string{developerDirectoryName, toolsRepositoryDirectoryName}}
	markerRepository := repositoryDefinition{directorySegments: []string{developerDirectoryName, "Marked"}, markerOnly: true}
	excludedRepository := repositoryDefinition{directorySegments: []string{developerDirectoryName, dependencyDirectoryName, "vendored"}}
	applicationRoot := repositoryDefinition{directorySegments: []string{applicationRootDirectoryName}}
	nestedPlugin := repositoryDefinition{directorySegments: []string{applicationRootDirectoryName, pluginsDirectoryName, pluginDirectoryName}}

	testScenarios := []filesystemDiscoveryTestScenario{
		{
			title:                 "discoversRepositoriesBeneathRoot",
			options:               discovery.DefaultOptions(),
			repositoryDefinitions: []repositoryDefinition{applicationRepository, serviceRepository, toolsRepository, markerRepository},
			expectedDefinitions:   []repositoryDefinition{applicationRepository, serviceRepository, toolsRepository, markerRepository},
		},
		{
			title:                 "skipsExcludedDirectories",
			options:               discovery.DefaultOptions(),
			repositoryDefinitions: []repositoryDefinition{toolsRepository, excludedRepository},
			expectedDefinitions:   []repositoryDefinition{toolsRepository},
		},
		{
			title:                 "respectsMaximumDepth",
			options:               discovery.Options{MaximumDepth: 2},
			repositoryDefinitions: []repositoryDefinition{applicationRepository, toolsRepository},
			expectedDefinitions:   []repositoryDefinition{toolsRepository},
		},
		{
			title:                 "reportsNestedRepositoriesWithParents",
			options:               discovery.DefaultOptions(),
			repositoryDefinitions: []repositoryDefinition{applicationRoot, nestedPlugin},
			expectedDefinitions:   []repositoryDefinition{applicationRoot, nestedPlugin},
		},
	}

	for testScenarioIndex := range testScenarios {
		testScenario := testScenarios[testScenarioIndex]
		testFramework.Run(testScenario.title, func(testFramework *testing.T) {
			testScenario.execute(testFramework)
		})
	}
}

func TestFilesystemRepositoryDiscovererSymbolicLinks(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	linkedRepository := repositoryDefinition{directorySegments: []string{"elsewhere", toolsRepositoryDirectoryName}}
	linkedRepository.create(testFramework, temporaryRootDirectory)

	scanRoot := filepath.Join(temporaryRootDirectory, "scan")
	require.NoError(testFramework, os.MkdirAll(scanRoot, repositoryDirectoryPermissions))
	require.NoError(testFramework, os.Symlink(filepath.Join(temporaryRootDirectory, "elsewhere"), filepath.Join(scanRoot, "linked")))
	require.NoError(testFramework, os.Symlink(scanRoot, filepath.Join(scanRoot, "loop")))

	withoutFollowing := discovery.NewFilesystemRepositoryDiscoverer(filesystem.OSFileSystem{}, discovery.DefaultOptions(), nil)
	unfollowed, unfollowedError := withoutFollowing.DiscoverRepositories(context.Background(), scanRoot)
	require.NoError(testFramework, unfollowedError)
	require.Empty(testFramework, unfollowed)

	followingOptions := discovery.DefaultOptions()
	followingOptions.FollowSymlinks = true
	withFollowing := discovery.NewFilesystemRepositoryDiscoverer(filesystem.OSFileSystem{}, followingOptions, nil)
	followed, followedError := withFollowing.DiscoverRepositories(context.Background(), scanRoot)
	require.NoError(testFramework, followedError)
	require.Equal(testFramework, []string{filepath.Join(scanRoot, "linked", toolsRepositoryDirectoryName) + string(os.PathSeparator)}, followed)
}

func TestFilesystemRepositoryDiscovererRejectsInvalidRoots(testFramework *testing.T) {
	repositoryDiscoverer := discovery.NewFilesystemRepositoryDiscoverer(filesystem.OSFileSystem{}, discovery.DefaultOptions(), nil)

	_, emptyRootError := repositoryDiscoverer.DiscoverRepositories(context.Background(), "")
	require.ErrorIs(testFramework, emptyRootError, discovery.ErrScanRootRequired)

	_, missingRootError := repositoryDiscoverer.DiscoverRepositories(context.Background(), filepath.Join(testFramework.TempDir(), "missing"))
	require.Error(testFramework, missingRootError)
}

func TestFilesystemRepositoryDiscovererHonorsCancellation(testFramework *testing.T) {
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	repositoryDiscoverer := discovery.NewFilesystemRepositoryDiscoverer(filesystem.OSFileSystem{}, discovery.DefaultOptions(), nil)
	_, discoveryError := repositoryDiscoverer.DiscoverRepositories(cancelledContext, testFramework.TempDir())
	require.ErrorIs(testFramework, discoveryError, context.Canceled)
}
