package repository_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/repository"
)

func TestSanitizeText(testFramework *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "main", expected: "main"},
		{name: "surrounding_whitespace", input: "\n  feature/x \t\n", expected: "feature/x"},
		{name: "inner_whitespace", input: "a \t\n b", expected: "a b"},
		{name: "script_element", input: "<script>x</script>release", expected: "release"},
		{name: "inline_markup", input: "<b>hotfix</b>-1", expected: "hotfix-1"},
		{name: "ampersand_kept_literal", input: "fix&merge", expected: "fix&merge"},
		{name: "quotes_kept_literal", input: `it's "main"`, expected: `it's "main"`},
		{name: "control_characters", input: "ma\x00in", expected: "main"},
		{name: "empty", input: " \n ", expected: ""},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, repository.SanitizeText(testCase.input))
		})
	}
}

func TestPathDepth(testFramework *testing.T) {
	require.Equal(testFramework, 0, repository.PathDepth("/"))
	require.Equal(testFramework, 1, repository.PathDepth("/app/"))
	require.Equal(testFramework, 3, repository.PathDepth("/app/plugins/foo/"))
}
