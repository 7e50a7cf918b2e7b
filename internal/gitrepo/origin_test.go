package gitrepo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/gitrepo"
	"github.com/temirov/whatgitbranch/internal/repos/filesystem"
)

const (
	testDirectoryPermissions = 0o755
	testFilePermissions      = 0o644
	gitHubConfiguration      = `[core]
	repositoryformatversion = 0
	bare = false
[remote "origin"]
	url = git@github.com:example/widgets.git
	fetch = +refs/heads/*:refs/remotes/origin/*
[branch "main"]
	remote = origin
	merge = refs/heads/main
`
	gitLabConfiguration = `[remote "origin"]
	url = https://gitlab.com/example/widgets.git
`
	upstreamOnlyConfiguration = `[remote "upstream"]
	url = https://github.com/example/widgets.git
`
)

func writeConfiguration(testFramework *testing.T, configuration string) string {
	testFramework.Helper()
	workingDirectory := testFramework.TempDir()
	metadataDirectory := filepath.Join(workingDirectory, ".git")
	require.NoError(testFramework, os.MkdirAll(metadataDirectory, testDirectoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(metadataDirectory, "config"), []byte(configuration), testFilePermissions))
	return workingDirectory
}

func TestRemoteReaderInfersGitHubRepository(testFramework *testing.T) {
	reader := gitrepo.NewRemoteReader(filesystem.OSFileSystem{})

	slug, slugError := reader.GitHubRepository(writeConfiguration(testFramework, gitHubConfiguration))
	require.NoError(testFramework, slugError)
	require.Equal(testFramework, "example/widgets", slug)

	_, hostError := reader.GitHubRepository(writeConfiguration(testFramework, gitLabConfiguration))
	require.Error(testFramework, hostError)

	_, missingRemoteError := reader.GitHubRepository(writeConfiguration(testFramework, upstreamOnlyConfiguration))
	require.ErrorIs(testFramework, missingRemoteError, gitrepo.ErrRemoteMissing)

	_, missingMetadataError := reader.GitHubRepository(testFramework.TempDir())
	require.ErrorIs(testFramework, missingMetadataError, gitrepo.ErrMetadataMissing)
}

func TestRemoteReaderFollowsCommonDirectory(testFramework *testing.T) {
	mainWorkingDirectory := writeConfiguration(testFramework, gitHubConfiguration)
	worktreeMetadata := filepath.Join(mainWorkingDirectory, ".git", "worktrees", "hotfix")
	require.NoError(testFramework, os.MkdirAll(worktreeMetadata, testDirectoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(worktreeMetadata, "commondir"), []byte("../..\n"), testFilePermissions))

	worktreeDirectory := filepath.Join(testFramework.TempDir(), "hotfix")
	require.NoError(testFramework, os.MkdirAll(worktreeDirectory, testDirectoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(worktreeDirectory, ".git"), []byte("gitdir: "+worktreeMetadata+"\n"), testFilePermissions))

	reader := gitrepo.NewRemoteReader(filesystem.OSFileSystem{})
	remoteURL, remoteError := reader.RemoteURL(worktreeDirectory, "origin")
	require.NoError(testFramework, remoteError)
	require.Equal(testFramework, "git@github.com:example/widgets.git", remoteURL)
}
