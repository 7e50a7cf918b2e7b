package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/locator"
	"github.com/temirov/whatgitbranch/internal/session"
	pathutils "github.com/temirov/whatgitbranch/internal/utils/path"
)

func TestDefaultConfigurationValidates(testFramework *testing.T) {
	defaults := session.DefaultConfiguration()
	require.NoError(testFramework, defaults.Validate())
	require.Equal(testFramework, locator.ScanWhenHeartbeat, defaults.ScanWhen())
	require.Equal(testFramework, 10*time.Minute, defaults.Cache.TimeToLive)
	require.Equal(testFramework, 30*time.Second, defaults.Scan.LeaseTimeToLive)
}

func TestDefaultConfigurationValuesAreRooted(testFramework *testing.T) {
	values := session.DefaultConfigurationValues("repositories")
	require.Equal(testFramework, ".", values["repositories.root"])
	require.Equal(testFramework, "heartbeat", values["repositories.scan.when"])
	require.Equal(testFramework, 12, values["repositories.scan.max_depth"])
	require.Equal(testFramework, []string{"node_modules"}, values["repositories.scan.exclude"])
	require.Equal(testFramework, "127.0.0.1:8787", values["repositories.heartbeat.address"])

	unrooted := session.DefaultConfigurationValues("")
	require.Contains(testFramework, unrooted, "cache.ttl")
}

func TestConfigurationValidation(testFramework *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(configuration *session.Configuration)
		expectedField string
	}{
		{
			name: "unknown scan setting",
			mutate: func(configuration *session.Configuration) {
				configuration.Scan.When = "sometimes"
			},
			expectedField: "Scan.When",
		},
		{
			name: "malformed primary slug",
			mutate: func(configuration *session.Configuration) {
				configuration.PrimaryGitHubRepository = "not a slug"
			},
			expectedField: "PrimaryGitHubRepository",
		},
		{
			name: "mapping without path",
			mutate: func(configuration *session.Configuration) {
				configuration.GitHubRepositories = []session.GitHubRepositoryEntry{{Repository: "octo/site"}}
			},
			expectedField: "GitHubRepositories[0].Path",
		},
		{
			name: "negative depth",
			mutate: func(configuration *session.Configuration) {
				configuration.Scan.MaximumDepth = -1
			},
			expectedField: "Scan.MaximumDepth",
		},
		{
			name: "missing cache directory",
			mutate: func(configuration *session.Configuration) {
				configuration.Cache.Directory = ""
			},
			expectedField: "Cache.Directory",
		},
		{
			name: "malformed heartbeat address",
			mutate: func(configuration *session.Configuration) {
				configuration.Heartbeat.Address = "localhost"
			},
			expectedField: "Heartbeat.Address",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subTest *testing.T) {
			configuration := session.DefaultConfiguration()
			testCase.mutate(&configuration)

			validationError := configuration.Validate()
			require.ErrorIs(subTest, validationError, session.ErrInvalidConfiguration)
			require.Contains(subTest, validationError.Error(), testCase.expectedField)
		})
	}
}

func TestConfigurationValidationAcceptsInMemoryCacheWithoutDirectory(testFramework *testing.T) {
	configuration := session.DefaultConfiguration()
	configuration.Cache.Directory = ""
	configuration.Cache.InMemory = true
	configuration.Scan.When = "HTTP-Request"
	require.NoError(testFramework, configuration.Validate())
}

func TestConfigurationSanitizeExpandsAndTrims(testFramework *testing.T) {
	expander := pathutils.NewHomeExpanderWithProviders(
		func() (string, error) { return "/home/operator", nil },
		func(string) (string, bool) { return "", false },
	)
	configuration := session.DefaultConfiguration()
	configuration.Root = " ~/sites "
	configuration.IncludeDirectories = []string{" ", "~/content"}
	configuration.Scan.When = " Manual "
	configuration.Scan.Exclude = []string{"node_modules", " vendor ", ""}
	configuration.GitHubRepositories = []session.GitHubRepositoryEntry{{Path: "~/sites/app", Repository: " octo/app "}}
	configuration.DisplayNames = []session.DisplayNameEntry{{Path: "~/sites/app/plugins/foo", Name: " Foo "}}
	configuration.HiddenDirectories = []string{" ~/sites/app/plugins/bar ", ""}

	sanitized := configuration.Sanitize(expander)

	require.Equal(testFramework, "/home/operator/sites", sanitized.Root)
	require.Equal(testFramework, []string{"/home/operator/content"}, sanitized.IncludeDirectories)
	require.Equal(testFramework, locator.ScanWhenManual, sanitized.ScanWhen())
	require.Equal(testFramework, []string{"node_modules", "vendor"}, sanitized.DiscoveryOptions().ExcludedDirectoryNames)
	require.Equal(testFramework, map[string]string{"/home/operator/sites/app": "octo/app"}, sanitized.GitHubRepositoryMap())
	require.Equal(testFramework, map[string]string{"/home/operator/sites/app/plugins/foo": "Foo"}, sanitized.DisplayNameMap())
	require.Equal(testFramework, []string{"/home/operator/sites/app/plugins/bar"}, sanitized.HiddenDirectories)
	require.Equal(testFramework, "/home/operator/.cache/what-git-branch", sanitized.Cache.Directory)
}
