package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/gitrepo"
)

func TestParseRemoteURL(testFramework *testing.T) {
	testCases := []struct {
		name          string
		remote        string
		expected      gitrepo.RemoteURL
		expectedError bool
	}{
		{
			name:     "scp_like",
			remote:   "git@github.com:example/widgets.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "github.com", Owner: "example", Repository: "widgets"},
		},
		{
			name:     "ssh_scheme",
			remote:   "ssh://git@github.com:22/example/widgets.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "github.com", Owner: "example", Repository: "widgets"},
		},
		{
			name:     "https_with_credentials",
			remote:   "https://token@github.com/example/widgets",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolHTTPS, Host: "github.com", Owner: "example", Repository: "widgets"},
		},
		{
			name:     "git_scheme",
			remote:   "git://gitlab.example.org/team/tools.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolGit, Host: "gitlab.example.org", Owner: "team", Repository: "tools"},
		},
		{name: "empty", remote: "  ", expectedError: true},
		{name: "local_path", remote: "/srv/git/widgets.git", expectedError: true},
		{name: "missing_owner", remote: "https://github.com/widgets", expectedError: true},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subtest *testing.T) {
			parsed, parseError := gitrepo.ParseRemoteURL(testCase.remote)
			if testCase.expectedError {
				require.Error(subtest, parseError)
				return
			}
			require.NoError(subtest, parseError)
			require.Equal(subtest, testCase.expected, parsed)
			require.Equal(subtest, testCase.expected.Owner+"/"+testCase.expected.Repository, parsed.Slug())
		})
	}
}
