// Package testsupport builds repository trees and runtimes shared by command tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/session"
)

const (
	// MainBranchPointer is a head pointer naming the main branch.
	MainBranchPointer = "ref: refs/heads/main\n"
	// ReleaseOverride is the marker content used for the plugin repository.
	ReleaseOverride = "release-2.1\n"

	directoryPermissions = 0o755
	filePermissions      = 0o644
	metadataDirectory    = ".git"
	headFileName         = "HEAD"
	markerFileName       = ".what-git-branch"
)

// ApplicationTree describes /app with VCS metadata and /app/plugins/foo with only an override marker.
type ApplicationTree struct {
	ApplicationDirectory string
	PluginDirectory      string
}

// CreateApplicationTree lays out an ApplicationTree beneath a temporary directory.
func CreateApplicationTree(testFramework testing.TB) ApplicationTree {
	testFramework.Helper()
	applicationDirectory := filepath.Join(testFramework.TempDir(), "app")
	WriteHeadPointer(testFramework, applicationDirectory, MainBranchPointer)

	pluginDirectory := filepath.Join(applicationDirectory, "plugins", "foo")
	WriteMarker(testFramework, pluginDirectory, ReleaseOverride)
	return ApplicationTree{ApplicationDirectory: applicationDirectory, PluginDirectory: pluginDirectory}
}

// WriteHeadPointer creates directory/.git/HEAD with content.
func WriteHeadPointer(testFramework testing.TB, directory string, content string) {
	testFramework.Helper()
	require.NoError(testFramework, os.MkdirAll(filepath.Join(directory, metadataDirectory), directoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(directory, metadataDirectory, headFileName), []byte(content), filePermissions))
}

// WriteMarker creates directory/.what-git-branch with content.
func WriteMarker(testFramework testing.TB, directory string, content string) {
	testFramework.Helper()
	require.NoError(testFramework, os.MkdirAll(directory, directoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(directory, markerFileName), []byte(content), filePermissions))
}

// WithSeparator appends the path separator the repository layer stores.
func WithSeparator(directory string) string {
	return directory + string(os.PathSeparator)
}

// InMemoryConfiguration returns defaults rooted at root with an in-memory cache.
func InMemoryConfiguration(root string) session.Configuration {
	configuration := session.DefaultConfiguration()
	configuration.Root = root
	configuration.Cache.Directory = ""
	configuration.Cache.InMemory = true
	return configuration
}

// NewRuntime builds a Runtime closed when the test ends.
func NewRuntime(testFramework testing.TB, configuration session.Configuration, dependencies session.Dependencies) *session.Runtime {
	testFramework.Helper()
	runtime := session.NewRuntime(configuration, dependencies)
	testFramework.Cleanup(func() {
		require.NoError(testFramework, runtime.Close())
	})
	return runtime
}

// RuntimeProvider returns a provider yielding runtime.
func RuntimeProvider(runtime *session.Runtime) session.RuntimeProvider {
	return func() (*session.Runtime, error) {
		return runtime, nil
	}
}
