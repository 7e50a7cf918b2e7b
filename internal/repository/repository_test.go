package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/repos/filesystem"
	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	testDirectoryPermissions  = 0o755
	testFilePermissions       = 0o644
	mainBranchPointer         = "ref: refs/heads/main\n"
	featureBranchPointer      = "ref: refs/heads/feature/login-form\n"
	remoteNamespacePointer    = "ref: refs/remotes/origin/main\n"
	fullCommitPointer         = "3f2a9c1d8e7b6a5f4e3d2c1b0a9f8e7d6c5b4a39\n"
	shortCommitPointer        = "abc12\n"
	expectedShortCommit       = "3f2a9c1"
	overrideFeatureBranch     = "feature/x"
	gitHubSlug                = "example/widgets"
	repositoryDirectoryName   = "widgets"
	customDisplayName         = "Widgets Service"
	linkedWorktreeGitDirValue = "gitdir: ../metadata/worktrees/widgets\n"
)

type staticSlugResolver struct {
	slug string
}

func (resolver staticSlugResolver) ResolveGitHubRepository(*repository.Repository) string {
	return resolver.slug
}

func createWorkingDirectory(testFramework *testing.T, headPointer string) string {
	testFramework.Helper()
	workingDirectory := filepath.Join(testFramework.TempDir(), repositoryDirectoryName)
	require.NoError(testFramework, os.MkdirAll(filepath.Join(workingDirectory, ".git"), testDirectoryPermissions))
	if len(headPointer) > 0 {
		require.NoError(testFramework, os.WriteFile(filepath.Join(workingDirectory, ".git", "HEAD"), []byte(headPointer), testFilePermissions))
	}
	return workingDirectory
}

func newRepository(testFramework *testing.T, directoryPath string, resolver repository.GitHubRepositoryResolver) *repository.Repository {
	testFramework.Helper()
	created, creationError := repository.New(
		directoryPath,
		repository.Dependencies{FileSystem: filesystem.OSFileSystem{}, GitHubRepositoryResolver: resolver},
		repository.Options{},
	)
	require.NoError(testFramework, creationError)
	return created
}

func TestRepositoryResolvesHeadPointers(testFramework *testing.T) {
	testCases := []struct {
		name            string
		headPointer     string
		expectedHeadRef string
		expectedState   repository.State
	}{
		{name: "branch", headPointer: mainBranchPointer, expectedHeadRef: "main", expectedState: repository.StateBranch},
		{name: "nested_branch", headPointer: featureBranchPointer, expectedHeadRef: "feature/login-form", expectedState: repository.StateBranch},
		{name: "other_namespace", headPointer: remoteNamespacePointer, expectedHeadRef: "origin/main", expectedState: repository.StateBranch},
		{name: "full_commit", headPointer: fullCommitPointer, expectedHeadRef: expectedShortCommit, expectedState: repository.StateCommit},
		{name: "short_commit", headPointer: shortCommitPointer, expectedHeadRef: "abc12", expectedState: repository.StateCommit},
		{name: "missing_head", headPointer: "", expectedHeadRef: "", expectedState: repository.StateUnresolvable},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subtest *testing.T) {
			workingDirectory := createWorkingDirectory(subtest, testCase.headPointer)
			resolved := newRepository(subtest, workingDirectory, nil)

			require.Equal(subtest, testCase.expectedHeadRef, resolved.HeadRef())
			require.Equal(subtest, testCase.expectedState, resolved.State())
			require.Equal(subtest, testCase.expectedState == repository.StateBranch, resolved.IsBranch())
			require.Equal(subtest, testCase.expectedState == repository.StateCommit, resolved.IsCommit())
		})
	}
}

func TestRepositoryWithoutMetadataIsUnresolvable(testFramework *testing.T) {
	unresolved := newRepository(testFramework, testFramework.TempDir(), staticSlugResolver{slug: gitHubSlug})

	require.Empty(testFramework, unresolved.HeadRef())
	require.False(testFramework, unresolved.IsBranch())
	require.False(testFramework, unresolved.IsCommit())
	require.Equal(testFramework, repository.SourceNone, unresolved.Source())
	require.Empty(testFramework, unresolved.GitHubURL())
}

func TestRepositoryResolutionIsIdempotent(testFramework *testing.T) {
	workingDirectory := createWorkingDirectory(testFramework, featureBranchPointer)
	resolved := newRepository(testFramework, workingDirectory, nil)

	firstHeadRef := resolved.HeadRef()
	resolved.ResolveHeadRef()
	require.Equal(testFramework, firstHeadRef, resolved.HeadRef())
}

func TestRepositoryOverrideTakesPrecedence(testFramework *testing.T) {
	workingDirectory := createWorkingDirectory(testFramework, mainBranchPointer)
	require.NoError(testFramework, os.WriteFile(filepath.Join(workingDirectory, ".what-git-branch"), []byte(overrideFeatureBranch+"\n"), testFilePermissions))

	resolved := newRepository(testFramework, workingDirectory, nil)

	require.Equal(testFramework, overrideFeatureBranch, resolved.HeadRef())
	require.True(testFramework, resolved.IsBranch())
	require.Equal(testFramework, repository.SourceOverride, resolved.Source())
	require.True(testFramework, resolved.HasOverride())
}

func TestRepositoryEmptyOverrideFallsBackToMetadata(testFramework *testing.T) {
	workingDirectory := createWorkingDirectory(testFramework, mainBranchPointer)
	require.NoError(testFramework, os.WriteFile(filepath.Join(workingDirectory, ".what-git-branch"), []byte("  \n"), testFilePermissions))

	resolved := newRepository(testFramework, workingDirectory, nil)

	require.Equal(testFramework, "main", resolved.HeadRef())
	require.Equal(testFramework, repository.SourceVCS, resolved.Source())
}

func TestRepositoryOverrideRoundTrip(testFramework *testing.T) {
	workingDirectory := createWorkingDirectory(testFramework, mainBranchPointer)
	resolved := newRepository(testFramework, workingDirectory, nil)
	require.Equal(testFramework, "main", resolved.HeadRef())

	require.NoError(testFramework, resolved.SetOverride("release/<b>2024</b>"))
	require.Equal(testFramework, "release/2024", resolved.HeadRef())
	require.True(testFramework, resolved.HasOverride())

	require.NoError(testFramework, resolved.ResetOverride())
	require.Equal(testFramework, "main", resolved.HeadRef())
	require.False(testFramework, resolved.HasOverride())

	require.ErrorIs(testFramework, resolved.ResetOverride(), repository.ErrOverrideNotPresent)
	require.ErrorIs(testFramework, resolved.SetOverride(" \t "), repository.ErrEmptyHeadRef)
}

func TestRepositoryFollowsGitDirectoryFile(testFramework *testing.T) {
	parentDirectory := testFramework.TempDir()
	metadataDirectory := filepath.Join(parentDirectory, "metadata", "worktrees", repositoryDirectoryName)
	require.NoError(testFramework, os.MkdirAll(metadataDirectory, testDirectoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(metadataDirectory, "HEAD"), []byte(featureBranchPointer), testFilePermissions))

	workingDirectory := filepath.Join(parentDirectory, repositoryDirectoryName)
	require.NoError(testFramework, os.MkdirAll(workingDirectory, testDirectoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(workingDirectory, ".git"), []byte(linkedWorktreeGitDirValue), testFilePermissions))

	resolved := newRepository(testFramework, workingDirectory, nil)

	require.Equal(testFramework, "feature/login-form", resolved.HeadRef())
	require.True(testFramework, repository.Qualifies(filesystem.OSFileSystem{}, workingDirectory))
}

func TestRepositoryGitHubURL(testFramework *testing.T) {
	testCases := []struct {
		name        string
		headPointer string
		slug        string
		expectedURL string
	}{
		{name: "branch", headPointer: featureBranchPointer, slug: gitHubSlug, expectedURL: "https://github.com/example/widgets/tree/feature/login-form"},
		{name: "commit", headPointer: fullCommitPointer, slug: gitHubSlug, expectedURL: "https://github.com/example/widgets/tree/" + expectedShortCommit},
		{name: "no_slug", headPointer: mainBranchPointer, slug: "", expectedURL: ""},
		{name: "unresolvable", headPointer: "", slug: gitHubSlug, expectedURL: ""},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subtest *testing.T) {
			workingDirectory := createWorkingDirectory(subtest, testCase.headPointer)
			resolved := newRepository(subtest, workingDirectory, staticSlugResolver{slug: testCase.slug})
			require.Equal(subtest, testCase.expectedURL, resolved.GitHubURL())
		})
	}
}

func TestRepositoryIdentity(testFramework *testing.T) {
	workingDirectory := createWorkingDirectory(testFramework, mainBranchPointer)

	first := newRepository(testFramework, workingDirectory, nil)
	second := newRepository(testFramework, workingDirectory+string(os.PathSeparator)+string(os.PathSeparator), nil)

	require.Equal(testFramework, workingDirectory+string(os.PathSeparator), first.Path())
	require.Equal(testFramework, first.Path(), second.Path())
	require.Equal(testFramework, first.Key(), second.Key())
	require.Len(testFramework, first.Key(), 32)
	require.Equal(testFramework, repositoryDirectoryName, first.Name())

	named, creationError := repository.New(
		workingDirectory,
		repository.Dependencies{FileSystem: filesystem.OSFileSystem{}},
		repository.Options{DisplayName: customDisplayName},
	)
	require.NoError(testFramework, creationError)
	require.Equal(testFramework, customDisplayName, named.Name())
}

func TestRepositoryMarkPrimaryOnce(testFramework *testing.T) {
	resolved := newRepository(testFramework, testFramework.TempDir(), nil)

	require.False(testFramework, resolved.IsPrimary())
	require.True(testFramework, resolved.MarkPrimary())
	require.False(testFramework, resolved.MarkPrimary())
	require.True(testFramework, resolved.IsPrimary())
}

func TestNewRejectsMissingInputs(testFramework *testing.T) {
	_, missingFileSystemError := repository.New(testFramework.TempDir(), repository.Dependencies{}, repository.Options{})
	require.ErrorIs(testFramework, missingFileSystemError, repository.ErrFileSystemRequired)

	_, missingPathError := repository.New("  ", repository.Dependencies{FileSystem: filesystem.OSFileSystem{}}, repository.Options{})
	require.ErrorIs(testFramework, missingPathError, repository.ErrDirectoryPathRequired)
}
