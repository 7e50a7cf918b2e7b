package listing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/whatgitbranch/internal/listing"
)

func TestDisplayPath(testFramework *testing.T) {
	testCases := []struct {
		name      string
		directory string
		root      string
		expected  string
	}{
		{name: "root itself", directory: "/srv/app/", root: "/srv/app/", expected: "./"},
		{name: "beneath root", directory: "/srv/app/plugins/foo/", root: "/srv/app/", expected: "./plugins/foo/"},
		{name: "outside root", directory: "/srv/content/", root: "/srv/app/", expected: "/srv/content/"},
		{name: "sibling with shared prefix", directory: "/srv/application/", root: "/srv/app/", expected: "/srv/application/"},
		{name: "no root", directory: "/srv/app/", root: "", expected: "/srv/app/"},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testFramework.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expected, listing.DisplayPath(testCase.directory, testCase.root))
		})
	}
}
