package listing_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/listing"
	"github.com/temirov/whatgitbranch/internal/session"
	"github.com/temirov/whatgitbranch/internal/testsupport"
	"github.com/temirov/whatgitbranch/internal/utils/flags"
)

func executeList(testFramework *testing.T, runtime *session.Runtime, arguments ...string) (string, error) {
	testFramework.Helper()
	builder := listing.CommandBuilder{RuntimeProvider: testsupport.RuntimeProvider(runtime)}
	command, buildError := builder.Build()
	require.NoError(testFramework, buildError)

	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs(arguments)
	executionError := command.Execute()
	return output.String(), executionError
}

func TestListCommandRendersApplicationTree(testFramework *testing.T) {
	tree := testsupport.CreateApplicationTree(testFramework)
	runtime := testsupport.NewRuntime(testFramework, testsupport.InMemoryConfiguration(tree.ApplicationDirectory), session.Dependencies{})

	testCases := []struct {
		name      string
		arguments []string
		expected  string
	}{
		{
			name:      "csv with default fields",
			arguments: []string{"--format", "csv"},
			expected:  "name,ref,path\napp,main,./\nfoo,release-2.1,./plugins/foo/\n",
		},
		{
			name:      "table without color",
			arguments: []string{"--no-color", "--fields", "name,ref"},
			expected:  "NAME  REF\napp   main\nfoo   release-2.1\n",
		},
		{
			name:      "count",
			arguments: []string{"--format", "COUNT"},
			expected:  "2\n",
		},
		{
			name:      "primary field",
			arguments: []string{"--format", "csv", "--fields", "name,is_primary"},
			expected:  "name,is_primary\napp,true\nfoo,false\n",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subTest *testing.T) {
			output, executionError := executeList(subTest, runtime, testCase.arguments...)
			require.NoError(subTest, executionError)
			require.Equal(subTest, testCase.expected, output)
		})
	}
}

func TestListCommandRejectsInvalidInput(testFramework *testing.T) {
	runtime := testsupport.NewRuntime(testFramework, testsupport.InMemoryConfiguration(testFramework.TempDir()), session.Dependencies{})

	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "unknown format", arguments: []string{"--format", "xml"}},
		{name: "unknown field", arguments: []string{"--fields", "name,color"}},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subTest *testing.T) {
			_, executionError := executeList(subTest, runtime, testCase.arguments...)
			require.ErrorIs(subTest, executionError, flags.ErrInvalidChoice)
		})
	}

	_, argumentError := executeList(testFramework, runtime, "extra")
	require.Error(testFramework, argumentError)
}
