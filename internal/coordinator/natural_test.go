package coordinator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/coordinator"
)

func TestNaturalLess(testFramework *testing.T) {
	testCases := []struct {
		left     string
		right    string
		expected bool
	}{
		{left: "repo2", right: "repo10", expected: true},
		{left: "repo10", right: "repo2", expected: false},
		{left: "Alpha", right: "beta", expected: true},
		{left: "beta", right: "Alpha", expected: false},
		{left: "repo", right: "repo1", expected: true},
		{left: "v1.9", right: "v1.10", expected: true},
		{left: "file02", right: "file2", expected: true},
		{left: "file2", right: "file02", expected: false},
		{left: "x02y", right: "x2z", expected: true},
		{left: "Plugin-9", right: "plugin-10", expected: true},
		{left: "same", right: "SAME", expected: false},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.left+"_"+testCase.right, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, coordinator.NaturalLess(testCase.left, testCase.right))
		})
	}
}
